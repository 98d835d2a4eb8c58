package inspect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
)

var (
	// no active inspector claimed the file.
	ErrUnclaimed = errors.New("no inspector claimed the file")

	// more than one inspector claimed the file.
	ErrAmbiguous = errors.New("more than one inspector claimed the file")
)

// ClassificationError wraps an unclaimed/ambiguous/invalid outcome with the
// offending path.
type ClassificationError struct {
	Path string
	Err  error
}

func (e ClassificationError) Error() string {
	return fmt.Sprintf("classify %s: %s", e.Path, e.Err)
}

func (e ClassificationError) Unwrap() error {
	return e.Err
}

// Dispatcher offers incoming files to the registered inspectors.
type Dispatcher struct {
	registry *Registry

	// catalog rows driving the dispatch, in evaluation order.
	inspectors []domain.Inspector

	// products by id, covering every inspector row.
	products map[int64]domain.Product
}

func NewDispatcher(
	registry *Registry,
	inspectors []domain.Inspector,
	products map[int64]domain.Product,
) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		inspectors: inspectors,
		products:   products,
	}
}

// Classify offers the file at path to every active inspector.
//
// Exactly one inspector has to claim it; zero claims is ErrUnclaimed and two
// or more is ErrAmbiguous, both wrapped in ClassificationError. The returned
// File carries everything needed for registration except its id.
func (d *Dispatcher) Classify(ctx context.Context, path string) (domain.File, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return domain.File{}, err
	}

	shasum, err := hashFile(path)
	if err != nil {
		return domain.File{}, err
	}

	var (
		claimed *DiskFile
		winner  domain.Inspector
	)
	for _, row := range d.inspectors {
		if !row.Active {
			continue
		}
		inspector, ok := d.registry.Lookup(row.Filename)
		if !ok {
			return domain.File{}, ClassificationError{
				Path: path,
				Err:  fmt.Errorf("inspector entry point %q is not registered", row.Filename),
			}
		}
		product, ok := d.products[row.ProductId]
		if !ok {
			return domain.File{}, ClassificationError{
				Path: path,
				Err:  fmt.Errorf("inspector %q references unknown product %d", row.Filename, row.ProductId),
			}
		}

		candidate := &DiskFile{Path: path, Filename: filepath.Base(path)}
		ok, err := inspector.Classify(ctx, candidate, product, ParseArguments(row.Arguments))
		if err != nil {
			return domain.File{}, ClassificationError{Path: path, Err: err}
		}
		if !ok {
			continue
		}
		if claimed != nil {
			return domain.File{}, ClassificationError{Path: path, Err: ErrAmbiguous}
		}
		claimed = candidate
		winner = row
	}
	if claimed == nil {
		return domain.File{}, ClassificationError{Path: path, Err: ErrUnclaimed}
	}

	if err := validate(claimed); err != nil {
		return domain.File{}, ClassificationError{Path: path, Err: err}
	}

	product := d.products[winner.ProductId]
	return domain.File{
		Filename:    claimed.Filename,
		ProductId:   product.Id,
		UtcFileDate: domain.TruncateDay(claimed.UtcFileDate),

		UtcStartTime: claimed.UtcStartTime,
		UtcStopTime:  claimed.UtcStopTime,

		// data level comes from the product, never from the inspector.
		DataLevel: product.Level,

		Version:        claimed.Version,
		FileCreateDate: stat.ModTime().UTC(),
		ExistsOnDisk:   true,

		QualityComment:    claimed.QualityComment,
		Caveats:           claimed.Caveats,
		VerboseProvenance: claimed.VerboseProvenance,
		MetStartTime:      claimed.MetStartTime,
		MetStopTime:       claimed.MetStopTime,
		Shasum:            shasum,
		ProcessKeywords:   claimed.ProcessKeywords,
	}, nil
}

// validate checks the fields the claiming inspector was required to set.
func validate(file *DiskFile) error {
	if file.UtcFileDate.IsZero() {
		return errors.New("inspector did not set utc_file_date")
	}
	if file.UtcStartTime.IsZero() || file.UtcStopTime.IsZero() {
		return errors.New("inspector did not set the coverage interval")
	}
	if !file.UtcStartTime.Before(file.UtcStopTime) {
		return fmt.Errorf(
			"coverage interval is empty: %s >= %s",
			file.UtcStartTime.Format(time.RFC3339), file.UtcStopTime.Format(time.RFC3339),
		)
	}
	if file.Version.Interface < 1 {
		return fmt.Errorf("inspector set invalid version %s", file.Version)
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
