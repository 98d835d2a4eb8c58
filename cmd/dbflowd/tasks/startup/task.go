package startup

import (
	"context"
	"log"
	"time"

	"github.com/opensdc/dbflow/cmd/dbflowd/loop/recurring"
	queuedb "github.com/opensdc/dbflow/pkg/domain/queue/db"
	"github.com/opensdc/dbflow/pkg/resolve"
	"github.com/opensdc/dbflow/pkg/runner"
)

// initial value for task
func Seed() struct{} {
	return struct{}{}
}

// return:
//
// - task : one pass at session start. Collapses queue duplicates, then runs
// every STARTUP-timebase process with the session day as build date.
//
// The task never reports backlog; under the backlog policy it runs once.
func Task(
	logger *log.Logger,
	queue queuedb.Interface,
	resolver *resolve.Resolver,
	run *runner.Runner,
) recurring.Task[struct{}] {
	return func(ctx context.Context, value struct{}) (struct{}, bool, error) {
		if err := queue.Clean(ctx); err != nil {
			return value, false, err
		}

		builds, err := resolver.ForStartup(ctx, time.Now())
		if err != nil {
			return value, false, err
		}
		if len(builds) == 0 {
			return value, false, nil
		}

		result, err := run.RunAll(ctx, builds)
		logger.Printf(
			"startup processes: %d built, %d failed, %d up to date",
			len(result.Done), len(result.Failed), result.Skipped,
		)
		return value, false, err
	}
}
