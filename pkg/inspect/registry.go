package inspect

import (
	"context"
	"fmt"
	"sync"

	"github.com/opensdc/dbflow/pkg/domain"
	"github.com/opensdc/dbflow/pkg/filename"
)

// EntryPointFormat is the entry point of the builtin inspector recognizing
// files by the product's own format template.
const EntryPointFormat = "format"

// Registry maps entry-point names, as stored on catalog inspector rows, to
// compiled-in Inspector implementations.
type Registry struct {
	mux        sync.RWMutex
	inspectors map[string]Inspector
}

func NewRegistry() *Registry {
	r := &Registry{inspectors: map[string]Inspector{}}
	r.Register(EntryPointFormat, InspectorFunc(classifyByFormat))
	return r
}

// Register binds an entry-point name. Re-registering a name replaces it.
func (r *Registry) Register(entryPoint string, inspector Inspector) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.inspectors[entryPoint] = inspector
}

func (r *Registry) Lookup(entryPoint string) (Inspector, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	i, ok := r.inspectors[entryPoint]
	return i, ok
}

// classifyByFormat claims a file iff its basename parses against the
// product's format template. The covered interval defaults to the whole
// parsed day; formats without date tokens never claim.
func classifyByFormat(ctx context.Context, file *DiskFile, product domain.Product, args map[string]string) (bool, error) {
	parsed, ok, err := filename.Parse(product.Format, file.Filename, filename.Context{
		Product: product.Name,
	})
	if err != nil {
		return false, fmt.Errorf("format of product %s: %w", product.Name, err)
	}
	if !ok || !parsed.HasDate {
		return false, nil
	}

	file.UtcFileDate = parsed.Date
	file.UtcStartTime = parsed.Date
	file.UtcStopTime = parsed.Date.AddDate(0, 0, 1)
	if parsed.HasVersion {
		file.Version = parsed.Version
	} else {
		file.Version = domain.Version{Interface: 1}
	}
	return true, nil
}
