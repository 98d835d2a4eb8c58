package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/opensdc/dbflow/cmd/dbflowd/handlers"
	"github.com/opensdc/dbflow/cmd/dbflowd/loop/recurring"
	configs "github.com/opensdc/dbflow/pkg/configs/backend"
	"github.com/opensdc/dbflow/pkg/domain"
	"github.com/opensdc/dbflow/pkg/domain/dbflow"
	kerr "github.com/opensdc/dbflow/pkg/domain/errors"
	"github.com/opensdc/dbflow/pkg/ingest"
	"github.com/opensdc/dbflow/pkg/inspect"
	"github.com/opensdc/dbflow/pkg/resolve"
	"github.com/opensdc/dbflow/pkg/runner"
	"github.com/opensdc/dbflow/pkg/utils/args"
	"github.com/opensdc/dbflow/pkg/utils/echoutil"
	"github.com/opensdc/dbflow/pkg/utils/filewatch"
	"github.com/opensdc/dbflow/pkg/utils/slices"
	"github.com/opensdc/dbflow/pkg/utils/try"
)

const dateFormat = "2006-01-02"

type date struct{ time.Time }

func (d date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateFormat)
}

func asDate(s string) (date, error) {
	t, err := time.Parse(dateFormat, s)
	return date{t}, err
}

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	// call cancel() when this function exits
	defer cancel()

	// define command line flags
	//-- path to config file
	pconfig := flag.String(
		"config", os.Getenv("DBFLOW_CONFIG"), "path to config file",
	)
	pSchemaRepo := flag.String(
		"schema-repo", os.Getenv("DBFLOW_SCHEMA"), "schema repository path",
	)
	pMission := flag.String(
		"mission", "", "mission to operate on (default: the one in config)",
	)
	ploglevel := flag.String("loglevel", "info", "log level of the status API. debug|info|warn|error|off")

	//-- one-shot modes
	pImport := flag.Bool("import-incoming", false, "ingest incoming/ once, then exit")
	pProcess := flag.Bool("process-queue", false, "drain the process queue once, then exit")
	pUpdateOnCodeChange := flag.Bool(
		"update-on-code-change", false,
		"rebuild outputs whose code changed even when their inputs did not",
	)

	//-- reprocessing
	pProduct := flag.Int64("product", 0, "product id for -reprocess")
	since := args.Parser(asDate)
	flag.Var(since, "since", "first utc file date for -reprocess (YYYY-MM-DD)")
	until := args.Parser(asDate)
	flag.Var(until, "until", "last utc file date for -reprocess (YYYY-MM-DD)")
	bump := args.Parser(domain.AsVersionBump)
	flag.Var(
		bump, "force-bump",
		"force a version component on rebuilt outputs: 0 (interface), 1 (quality) or 2 (revision)",
	)
	pReprocess := flag.Bool(
		"reprocess", false,
		"push newest files of -product in [-since, -until] onto the queue, then exit",
	)

	//-- release tagging
	pTagRelease := flag.Int(
		"tag-release", 0,
		"snapshot every newest file under this release number, then exit",
	)

	//-- stale-session recovery
	pResetStale := flag.Bool(
		"reset-stale", false, "release the processing guard of a dead session, then exit",
	)
	pComment := flag.String("comment", "", "operator comment for -reset-stale")

	// parse command line flags
	flag.Parse()

	if *pReprocess && *pProduct == 0 {
		logger.Println("-reprocess needs -product")
		os.Exit(2)
	}
	if *pResetStale && *pComment == "" {
		logger.Println("-reset-stale needs -comment")
		os.Exit(2)
	}

	{
		// watch config; a modified config quits the daemon to restart
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(configs.LoadDbflowConfig(*pconfig)).OrFatal(logger)

	options := []dbflow.Option{}
	if *pSchemaRepo != "" {
		options = append(options, dbflow.WithSchemaRepository(*pSchemaRepo))
	}
	flow := try.To(dbflow.New(ctx, conf, options...)).OrFatal(logger)
	defer flow.Close()

	{
		// quit when another process upgrades the schema under us
		ctx_, ccan := flow.Schema().Database().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	missionName := *pMission
	if missionName == "" {
		missionName = conf.Mission()
	}
	mission := try.To(flow.Mission().Database().GetMission(ctx, missionName)).OrFatal(logger)

	products := slices.ToMap(
		try.To(flow.Mission().Database().Products(ctx)).OrFatal(logger),
		func(p domain.Product) int64 { return p.Id },
	)
	inspectors := try.To(flow.Mission().Database().ActiveInspectors(ctx)).OrFatal(logger)

	if *pResetStale {
		resetStale(ctx, logger, flow, *pComment)
		return
	}
	if *pTagRelease != 0 {
		tagged := try.To(
			flow.Release().Database().Tag(ctx, *pTagRelease),
		).OrFatal(logger)
		logger.Printf("tagged %d file(s) under release %d", tagged, *pTagRelease)
		return
	}
	if *pReprocess {
		forced := domain.BumpNone
		if bump.IsSet() {
			forced = bump.Value()
		}
		reprocess(ctx, logger, flow, *pProduct, since.Value(), until.Value(), forced)
		return
	}

	pipeline := ingest.New(
		mission,
		inspect.NewDispatcher(inspect.NewRegistry(), inspectors, products),
		flow.File().Database(),
		flow.Queue().Database(),
		products,
		logger,
	)
	resolver := resolve.New(
		mission, flow.File().Database(), flow.Process().Database(), products,
	)
	resolver.UpdateOnCodeChange = *pUpdateOnCodeChange

	// acquire the per-mission processing guard
	session, err := flow.Logging().Database().StartSession(ctx, domain.Session{
		SessionId:           uuid.NewString(),
		CurrentlyProcessing: true,
		Pid:                 os.Getpid(),
		Hostname:            try.To(os.Hostname()).OrDefault("(unknown)"),
		User:                username(),
		MissionId:           mission.Id,
		StartTime:           time.Now(),
	})
	if errors.Is(err, kerr.ErrLocked) {
		logger.Fatalf(
			"another session is processing mission %s; use -reset-stale if it is dead",
			mission.Name,
		)
	}
	if err != nil {
		logger.Fatal(err)
	}

	exitComment := "normal exit"
	defer func() {
		// ctx may be gone already; release the guard anyway
		graceful, ccan := context.WithTimeout(context.Background(), 15*time.Second)
		defer ccan()
		if err := flow.Logging().Database().EndSession(graceful, session.Id, exitComment); err != nil {
			logger.Printf("can not close session %s: %s", session.SessionId, err)
		}
	}()

	run := runner.New(
		mission, pipeline, flow.File().Database(), flow.Logging().Database(),
		session.Id, logger,
	)

	switch {
	case *pImport:
		err = StartIngestLoop(
			ctx, logger, pipeline,
			LoopManifest{Policy: recurring.Backlog()},
		)
	case *pProcess:
		err = processQueue(ctx, logger, flow, pipeline, resolver, run)
	default:
		err = daemon(ctx, logger, conf, flow, pipeline, resolver, run, *ploglevel)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		exitComment = err.Error()
		logger.Fatal(err)
	}
}

// processQueue drains the startup backlog and then the process queue once.
func processQueue(
	ctx context.Context,
	logger *log.Logger,
	flow dbflow.Dbflow,
	pipeline *ingest.Pipeline,
	resolver *resolve.Resolver,
	run *runner.Runner,
) error {
	if err := StartStartupPass(ctx, logger, flow, resolver, run); err != nil {
		return err
	}
	return StartBuildLoop(
		ctx, logger, flow, resolver, run,
		LoopManifest{Policy: recurring.Backlog()},
	)
}

// daemon runs the recurring loops and the status API until one of them
// fails or the context is cancelled.
func daemon(
	ctx context.Context,
	logger *log.Logger,
	conf *configs.DbflowConfig,
	flow dbflow.Dbflow,
	pipeline *ingest.Pipeline,
	resolver *resolve.Resolver,
	run *runner.Runner,
	loglevel string,
) error {
	if err := StartStartupPass(ctx, logger, flow, resolver, run); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errch := make(chan error, 4)

	go func() {
		errch <- StartIngestLoop(
			ctx, logger, pipeline,
			LoopManifest{Policy: recurring.UntilError(recurring.Forever(conf.Loops().Ingest()))},
		)
	}()
	go func() {
		errch <- StartBuildLoop(
			ctx, logger, flow, resolver, run,
			LoopManifest{Policy: recurring.UntilError(recurring.Forever(conf.Loops().Build()))},
		)
	}()
	go func() {
		errch <- StartHousekeepingLoop(
			ctx, logger, flow, pipeline,
			LoopManifest{Policy: recurring.UntilError(recurring.Forever(conf.Loops().Housekeeping()))},
		)
	}()

	e := echo.New()
	if port := conf.Port(); port != 0 {
		e.Pre(middleware.AddTrailingSlash())
		echoutil.SetLevel(e, loglevel)
		e.HTTPErrorHandler = func(err error, ctx echo.Context) {
			e.DefaultHTTPErrorHandler(err, ctx)
			e.Logger.Error(err)
		}
		e.Use(echoutil.LogHandlerFunc)

		e.GET("/api/queue/", handlers.GetQueueHandler(
			flow.Queue().Database(), flow.File().Database(),
		))
		e.GET("/api/session/", handlers.GetSessionHandler(flow.Logging().Database()))
		e.GET("/api/sessions/", handlers.GetSessionsHandler(flow.Logging().Database()))
		e.GET("/api/traceback/file/:id/", handlers.GetFileTracebackHandler(
			flow.File().Database(),
		))

		go func() {
			err := e.Start(fmt.Sprintf(":%d", port))
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errch <- err
		}()
	}

	var err error
	select {
	case err = <-errch:
	case <-ctx.Done():
		err = ctx.Err()
	}
	cancel()

	{
		graceful, ccan := context.WithTimeout(context.Background(), 15*time.Second)
		defer ccan()
		if serr := e.Shutdown(graceful); serr != nil {
			logger.Printf("error on shutdown of the status API: %s", serr)
		}
	}

	return err
}

// reprocess pushes the newest files of a product back onto the queue.
func reprocess(
	ctx context.Context,
	logger *log.Logger,
	flow dbflow.Dbflow,
	productId int64,
	since date,
	until date,
	bump domain.VersionBump,
) {
	first := since.Time
	last := until.Time
	if last.IsZero() {
		last = time.Now()
	}

	files := try.To(
		flow.File().Database().NewestInRange(ctx, productId, first, last),
	).OrFatal(logger)

	queue := flow.Queue().Database()
	for _, f := range files {
		err := queue.Push(ctx, domain.QueueEntry{FileId: f.Id, Bump: bump})
		if err != nil {
			logger.Fatal(err)
		}
	}
	logger.Printf("queued %d file(s) of product %d for reprocessing", len(files), productId)
}

// resetStale releases the processing guard left behind by a dead session.
func resetStale(ctx context.Context, logger *log.Logger, flow dbflow.Dbflow, comment string) {
	alive := func(pid int) bool {
		proc, err := os.FindProcess(pid)
		if err != nil {
			return false
		}
		return proc.Signal(syscall.Signal(0)) == nil
	}

	reset := try.To(
		flow.Logging().Database().ResetStale(ctx, comment, alive),
	).OrFatal(logger)
	if reset {
		logger.Println("released the processing guard")
	} else {
		logger.Println("no stale session found")
	}
}

func username() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
