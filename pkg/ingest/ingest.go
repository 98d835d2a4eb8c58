// Package ingest empties incoming/ into the archive.
//
// Each file is classified, registered in the catalog, moved into place under
// the mission rootdir and pushed onto the process queue. Anything that
// cannot be ingested lands in errors/ and the pass continues.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/opensdc/dbflow/pkg/domain"
	domerr "github.com/opensdc/dbflow/pkg/domain/errors"
	filedb "github.com/opensdc/dbflow/pkg/domain/file/db"
	queuedb "github.com/opensdc/dbflow/pkg/domain/queue/db"
	"github.com/opensdc/dbflow/pkg/filename"
	"github.com/opensdc/dbflow/pkg/inspect"
)

// Pipeline ingests files for one mission.
type Pipeline struct {
	mission    domain.Mission
	dispatcher *inspect.Dispatcher
	files      filedb.Interface
	queue      queuedb.Interface
	products   map[int64]domain.Product
	logger     *log.Logger
}

func New(
	mission domain.Mission,
	dispatcher *inspect.Dispatcher,
	files filedb.Interface,
	queue queuedb.Interface,
	products map[int64]domain.Product,
	logger *log.Logger,
) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		mission:    mission,
		dispatcher: dispatcher,
		files:      files,
		queue:      queue,
		products:   products,
		logger:     logger,
	}
}

// Result is the outcome of one ingest pass.
type Result struct {
	// file ids registered during the pass, in ingest order.
	Ingested []int64

	// basenames routed to errors/.
	Errored []string
}

// Run ingests every regular file and symlink in incoming/, in name order.
//
// A failed file is routed to errors/ and logged; the pass continues. Run
// only fails on errors that make the whole pass impossible.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	result := Result{}

	entries, err := os.ReadDir(p.mission.IncomingDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, nil
		}
		return result, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(p.mission.IncomingDir(), entry.Name())
		fileId, err := p.One(ctx, path)
		if err != nil {
			p.logger.Printf("ingest %s: %s", entry.Name(), err)
			if err := p.toErrors(path); err != nil {
				p.logger.Printf("route %s to errors/: %s", entry.Name(), err)
			}
			result.Errored = append(result.Errored, entry.Name())
			continue
		}
		result.Ingested = append(result.Ingested, fileId)
	}

	return result, nil
}

// One ingests a single file. On error the caller owns routing to errors/.
func (p *Pipeline) One(ctx context.Context, path string) (int64, error) {
	basename := filepath.Base(path)

	// never silently re-ingest a known basename.
	if _, err := p.files.GetByFilename(ctx, basename); err == nil {
		return 0, fmt.Errorf("%s is already in the catalog", basename)
	} else if !errors.Is(err, domerr.ErrMissing) {
		return 0, err
	}

	file, err := p.dispatcher.Classify(ctx, path)
	if err != nil {
		return 0, err
	}

	destination, err := p.Destination(file)
	if err != nil {
		return 0, err
	}

	registered, err := p.files.Register(ctx, file)
	if err != nil {
		return 0, err
	}

	if err := p.place(path, destination); err != nil {
		// catalog row stays; housekeeping reconciles exists_on_disk.
		return 0, err
	}

	if err := p.queue.Push(ctx, domain.QueueEntry{
		FileId: registered.Id, Bump: domain.BumpNone,
	}); err != nil {
		return 0, err
	}

	return registered.Id, nil
}

// Destination resolves the archive path of a classified file from its
// product's relative_path template.
func (p *Pipeline) Destination(file domain.File) (string, error) {
	product, ok := p.products[file.ProductId]
	if !ok {
		return "", fmt.Errorf("%w: product %d", domerr.ErrMissing, file.ProductId)
	}

	relative, err := filename.Format(product.RelativePath, filename.Context{
		Mission: p.mission.Name,
		Product: product.Name,
		Level:   fmt.Sprintf("%g", product.Level),
		RootDir: p.mission.Rootdir,
		Date:    file.UtcFileDate,
		Version: file.Version,
	})
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(relative) {
		return filepath.Join(relative, file.Filename), nil
	}
	return filepath.Join(p.mission.Rootdir, "data", relative, file.Filename), nil
}

// place moves the physical file into the archive. A symlink in incoming/ is
// unlinked instead; its target is expected to be archived already.
func (p *Pipeline) place(path, destination string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return os.Remove(path)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}
	return os.Rename(path, destination)
}

// toErrors moves a failed file into errors/.
func (p *Pipeline) toErrors(path string) error {
	errorDir := p.mission.ErrorDir()
	if err := os.MkdirAll(errorDir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(errorDir, filepath.Base(path)))
}
