// Package inspect classifies files dropped into incoming/.
//
// Each product registers one inspector in the catalog, referenced by an
// entry-point name. Inspectors are compiled into the binary and looked up in
// a Registry; dispatch offers a file to every active inspector and accepts
// it when exactly one claims it.
package inspect

import (
	"context"
	"strings"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
)

// DiskFile is the metadata record an inspector fills for a claimed file.
//
// An inspector MUST set UtcFileDate, UtcStartTime, UtcStopTime (start before
// stop) and Version. The remaining fields are optional; Filename, Shasum,
// FileCreateDate, ProductId and DataLevel are owned by the dispatcher.
type DiskFile struct {
	// absolute path of the candidate, read-only for inspectors.
	Path string

	// basename of Path, read-only for inspectors.
	Filename string

	UtcFileDate  time.Time
	UtcStartTime time.Time
	UtcStopTime  time.Time
	Version      domain.Version

	ProcessKeywords   string
	MetStartTime      string
	MetStopTime       string
	Caveats           string
	QualityComment    string
	VerboseProvenance string
}

// Inspector decides whether a file belongs to its product.
//
// Claiming means returning true after populating the required DiskFile
// fields. A false return declines without error; an error aborts dispatch of
// this file.
type Inspector interface {
	Classify(ctx context.Context, file *DiskFile, product domain.Product, args map[string]string) (bool, error)
}

// InspectorFunc adapts a function to the Inspector interface.
type InspectorFunc func(ctx context.Context, file *DiskFile, product domain.Product, args map[string]string) (bool, error)

func (f InspectorFunc) Classify(ctx context.Context, file *DiskFile, product domain.Product, args map[string]string) (bool, error) {
	return f(ctx, file, product, args)
}

// ParseArguments expands an inspector's argument string into keyword
// options. The string is whitespace separated `key=value` pairs; a bare word
// becomes a key with empty value.
func ParseArguments(arguments string) map[string]string {
	args := map[string]string{}
	for _, word := range strings.Fields(arguments) {
		key, value, _ := strings.Cut(word, "=")
		args[key] = value
	}
	return args
}
