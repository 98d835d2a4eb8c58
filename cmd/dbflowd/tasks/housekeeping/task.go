package housekeeping

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/opensdc/dbflow/cmd/dbflowd/loop/recurring"
	filedb "github.com/opensdc/dbflow/pkg/domain/file/db"
	"github.com/opensdc/dbflow/pkg/ingest"
)

const pageSize = 100

// Cursor is the keyset position of the reconciliation walk.
type Cursor struct {
	After int64
}

// initial value for task
func Seed() Cursor {
	return Cursor{}
}

// return:
//
// - task : reconciles exists_on_disk with the file tree, one page per cycle.
//
// Files the catalog believes are on disk but whose archive path has vanished
// get the flag flipped off. An exhausted walk rewinds for the next round.
func Task(
	logger *log.Logger,
	files filedb.Interface,
	pipeline *ingest.Pipeline,
) recurring.Task[Cursor] {
	return func(ctx context.Context, cursor Cursor) (Cursor, bool, error) {
		page, err := files.OnDisk(ctx, pageSize, cursor.After)
		if err != nil {
			return cursor, false, err
		}
		if len(page) == 0 {
			return Seed(), false, nil
		}

		for _, file := range page {
			if err := ctx.Err(); err != nil {
				return cursor, false, err
			}

			path, err := pipeline.Destination(file)
			if err != nil {
				logger.Printf("no archive path for %s: %v", file.Filename, err)
				continue
			}
			if _, err := os.Stat(path); err == nil {
				continue
			} else if !errors.Is(err, os.ErrNotExist) {
				return cursor, false, err
			}

			logger.Printf("%s is gone from %s; flagged off disk", file.Filename, path)
			if err := files.SetExistsOnDisk(ctx, file.Id, false); err != nil {
				return cursor, false, err
			}
		}

		cursor.After = page[len(page)-1].Id
		return cursor, true, nil
	}
}
