package ingesting

import (
	"context"
	"log"

	"github.com/opensdc/dbflow/cmd/dbflowd/loop/recurring"
	"github.com/opensdc/dbflow/pkg/ingest"
)

// Stats accumulates per-session ingest outcomes.
type Stats struct {
	Ingested int
	Errored  int
}

// initial value for task
func Seed() Stats {
	return Stats{}
}

// return:
//
// - task : drains incoming/ into the catalog, one pass per cycle.
func Task(logger *log.Logger, pipeline *ingest.Pipeline) recurring.Task[Stats] {
	return func(ctx context.Context, stats Stats) (Stats, bool, error) {
		result, err := pipeline.Run(ctx)
		if err != nil {
			return stats, false, err
		}

		stats.Ingested += len(result.Ingested)
		stats.Errored += len(result.Errored)

		if touched := len(result.Ingested) + len(result.Errored); touched != 0 {
			logger.Printf(
				"ingested %d file(s), %d routed to errors/ (session total: %d/%d)",
				len(result.Ingested), len(result.Errored), stats.Ingested, stats.Errored,
			)
			return stats, true, nil
		}
		return stats, false, nil
	}
}
