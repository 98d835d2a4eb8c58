package db

import (
	"context"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
)

// Interface is the catalog client for files and their lineage.
type Interface interface {
	// Retrieve files by id.
	//
	// Returns
	//
	// - map[int64]domain.File : mapping from file id to File.
	// Ids not found are absent from the map.
	Get(ctx context.Context, fileIds []int64) (map[int64]domain.File, error)

	// Retrieve a file by its globally-unique basename. ErrMissing when none.
	GetByFilename(ctx context.Context, basename string) (domain.File, error)

	// Register inserts a file row and maintains the newest-version flags of
	// its (product, utc_file_date) group in the same transaction.
	//
	// The new file becomes newest iff its Version is the greatest of the
	// group; all others are flipped off. A duplicate filename or violated
	// check constraint rolls back and returns ErrConflict.
	Register(ctx context.Context, file domain.File) (domain.File, error)

	// Newest-version file per (product, date). ErrMissing when the product
	// has no file for the date.
	NewestByProductAndDate(ctx context.Context, productId int64, date time.Time) (domain.File, error)

	// Newest-version files of a product with utc_file_date in
	// [first, last], inclusive, ordered by date.
	NewestInRange(ctx context.Context, productId int64, first, last time.Time) ([]domain.File, error)

	// Record lineage of a produced file: one file-file link per source and
	// exactly one file-code link.
	RecordLineage(ctx context.Context, resultingFileId int64, sourceFileIds []int64, codeId int64) error

	// The recorded ancestry of a file. ErrMissing when the file has no
	// file-code link (it was ingested from outside).
	Lineage(ctx context.Context, fileId int64) (domain.Lineage, error)

	// Flip the exists_on_disk flag.
	SetExistsOnDisk(ctx context.Context, fileId int64, exists bool) error

	// Files marked exists_on_disk, ordered by id. Used by housekeeping to
	// reconcile the catalog with the file tree.
	OnDisk(ctx context.Context, limit int, after int64) ([]domain.File, error)

	// Purge removes a file row with its link, queue and release rows.
	Purge(ctx context.Context, fileId int64) error

	// The full ancestry of a file, product tree included.
	Traceback(ctx context.Context, fileId int64) (domain.FileTraceback, error)
}
