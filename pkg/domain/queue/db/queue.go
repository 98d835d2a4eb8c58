package db

import (
	"context"

	"github.com/opensdc/dbflow/pkg/domain"
)

// Interface is the catalog client for the process queue.
//
// The queue is FIFO; entries are (file id, forced version bump) pairs.
type Interface interface {
	Push(ctx context.Context, entry domain.QueueEntry) error

	// Pop removes and returns the entry at the given position (0 = head).
	//
	// The second return is false when the queue is shorter than index+1.
	Pop(ctx context.Context, index int) (domain.QueueEntry, bool, error)

	// Get returns the entry at the given position without removing it.
	Get(ctx context.Context, index int) (domain.QueueEntry, bool, error)

	Len(ctx context.Context) (int, error)

	// Entries lists up to limit entries, head first, without removing them.
	Entries(ctx context.Context, limit int) ([]domain.QueueEntry, error)

	// Flush discards every entry.
	Flush(ctx context.Context) error

	// Remove discards every entry for the given file id.
	Remove(ctx context.Context, fileId int64) error

	// Clean collapses duplicate (product, utc_file_date) entries, keeping
	// only the one whose file has the greatest Version. Ordering of
	// surviving entries is preserved.
	Clean(ctx context.Context) error
}
