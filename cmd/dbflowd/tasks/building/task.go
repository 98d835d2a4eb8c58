package building

import (
	"context"
	"errors"
	"log"

	"github.com/opensdc/dbflow/cmd/dbflowd/loop/recurring"
	filedb "github.com/opensdc/dbflow/pkg/domain/file/db"
	queuedb "github.com/opensdc/dbflow/pkg/domain/queue/db"
	"github.com/opensdc/dbflow/pkg/resolve"
	"github.com/opensdc/dbflow/pkg/runner"
)

// Stats accumulates per-session build outcomes.
type Stats struct {
	Popped   int
	Built    int
	Failed   int
	UpToDate int
}

// initial value for task
func Seed() Stats {
	return Stats{}
}

// return:
//
// - task : pops one queue entry per cycle and runs the builds it calls for.
//
// Outputs of successful builds come back through ingest onto the queue, so a
// build chain drains within one backlog.
func Task(
	logger *log.Logger,
	queue queuedb.Interface,
	files filedb.Interface,
	resolver *resolve.Resolver,
	run *runner.Runner,
) recurring.Task[Stats] {
	return func(ctx context.Context, stats Stats) (Stats, bool, error) {
		entry, ok, err := queue.Pop(ctx, 0)
		if err != nil || !ok {
			return stats, false, err
		}
		stats.Popped += 1

		found, err := files.Get(ctx, []int64{entry.FileId})
		if err != nil {
			return stats, true, err
		}
		trigger, ok := found[entry.FileId]
		if !ok {
			// purged while queued
			logger.Printf("file %d vanished from the catalog; dropped", entry.FileId)
			return stats, true, nil
		}

		builds, err := resolver.ForFile(ctx, trigger, entry.Bump)
		if err != nil {
			if errors.As(err, &resolve.FilenameError{}) {
				logger.Printf("resolve of %s: %v", trigger.Filename, err)
				return stats, true, nil
			}
			return stats, true, err
		}

		result, err := run.RunAll(ctx, builds)
		stats.Built += len(result.Done)
		stats.Failed += len(result.Failed)
		stats.UpToDate += result.Skipped
		if err != nil {
			return stats, true, err
		}

		logger.Printf(
			"file %s: %d built, %d failed, %d up to date",
			trigger.Filename, len(result.Done), len(result.Failed), result.Skipped,
		)
		return stats, true, nil
	}
}
