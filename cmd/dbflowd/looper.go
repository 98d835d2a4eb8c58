package main

import (
	"context"
	"log"
	"time"

	"github.com/opensdc/dbflow/cmd/dbflowd/loop/recurring"
	"github.com/opensdc/dbflow/cmd/dbflowd/tasks/building"
	"github.com/opensdc/dbflow/cmd/dbflowd/tasks/housekeeping"
	"github.com/opensdc/dbflow/cmd/dbflowd/tasks/ingesting"
	"github.com/opensdc/dbflow/cmd/dbflowd/tasks/startup"
	"github.com/opensdc/dbflow/pkg/domain/dbflow"
	"github.com/opensdc/dbflow/pkg/ingest"
	"github.com/opensdc/dbflow/pkg/loop"
	"github.com/opensdc/dbflow/pkg/resolve"
	"github.com/opensdc/dbflow/pkg/runner"
)

type LoggerOptions func(*log.Logger) *log.Logger

func byLogger(l *log.Logger, opt ...LoggerOptions) *log.Logger {
	for _, o := range opt {
		l = o(l)
	}
	return l
}

func Copied() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		return log.New(l.Writer(), l.Prefix(), l.Flags())
	}
}

func WithPrefix(pre string) LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetPrefix(pre)
		return l
	}
}

func WithTimestamp() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetFlags(l.Flags() | log.Ldate | log.Ltime | log.Lmicroseconds)
		return l
	}
}

// Wrapper for monitoring loop tasks
//
//	Log the start and end of each time a task is executed. Essentially, it executes a task.
func monitor[T any](logger *log.Logger, task loop.Task[T]) loop.Task[T] {
	// counter for execution of the task
	var counter uint64
	return func(ctx context.Context, t T) (ret T, next loop.Next) {
		// func() capture the 'counter' variable
		counter += 1
		timestamp := time.Now()

		logger.Printf("task start: #0x%X: ", counter)

		// log at the end of the task
		defer func() {
			logger.Printf(
				"task end: #0x%X (takes %s): %s\n with value = %#v",
				counter, time.Since(timestamp), next, ret,
			)
		}()

		// execute the task specified by the argument
		ret, next = task(ctx, t)
		return
	}
}

// Manifest for starting a loop, which determines how the loop should behave.
type LoopManifest struct {
	// Policy for the looping
	Policy recurring.Policy
}

// Drain the session startup backlog: queue dedup, then STARTUP builds.
func StartStartupPass(
	ctx context.Context,
	logger *log.Logger,
	flow dbflow.Dbflow,
	resolver *resolve.Resolver,
	run *runner.Runner,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[startup]"))
	_, err := loop.Start(
		ctx, startup.Seed(),
		monitor(
			l,
			startup.Task(
				l, flow.Queue().Database(), resolver, run,
			).Applied(recurring.Backlog()),
		),
	)
	return err
}

func StartIngestLoop(
	ctx context.Context,
	logger *log.Logger,
	pipeline *ingest.Pipeline,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[ingest loop]"))
	_, err := loop.Start(
		ctx, ingesting.Seed(),
		monitor(
			l,
			ingesting.Task(l, pipeline).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}

func StartBuildLoop(
	ctx context.Context,
	logger *log.Logger,
	flow dbflow.Dbflow,
	resolver *resolve.Resolver,
	run *runner.Runner,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[build loop]"))
	_, err := loop.Start(
		ctx, building.Seed(),
		monitor(
			l,
			building.Task(
				l,
				flow.Queue().Database(),
				flow.File().Database(),
				resolver,
				run,
			).Applied(manifest.Policy),
		),
	)
	return err
}

func StartHousekeepingLoop(
	ctx context.Context,
	logger *log.Logger,
	flow dbflow.Dbflow,
	pipeline *ingest.Pipeline,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[housekeeping loop]"))
	_, err := loop.Start(
		ctx, housekeeping.Seed(),
		monitor(
			l,
			housekeeping.Task(
				l, flow.File().Database(), pipeline,
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}
