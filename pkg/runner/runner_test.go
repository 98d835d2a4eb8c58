package runner_test

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
	domerr "github.com/opensdc/dbflow/pkg/domain/errors"
	mockfile "github.com/opensdc/dbflow/pkg/domain/file/db/mock"
	mocklogging "github.com/opensdc/dbflow/pkg/domain/logging/db/mock"
	mockqueue "github.com/opensdc/dbflow/pkg/domain/queue/db/mock"
	"github.com/opensdc/dbflow/pkg/ingest"
	"github.com/opensdc/dbflow/pkg/inspect"
	"github.com/opensdc/dbflow/pkg/resolve"
	"github.com/opensdc/dbflow/pkg/runner"

	testutilctx "github.com/opensdc/dbflow/internal/testutils/context"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func v(i, q, r int) domain.Version {
	ver, err := domain.NewVersion(i, q, r)
	if err != nil {
		panic(err)
	}
	return ver
}

var (
	l0 = domain.Product{
		Id: 1, Name: "L0", Level: 0,
		RelativePath: "l0", Format: "L0_{Y}{m}{d}_v{VERSION}.dat",
	}
	l1 = domain.Product{
		Id: 2, Name: "L1", Level: 1,
		RelativePath: "l1", Format: "L1_{Y}{m}{d}_v{VERSION}.dat",
	}
)

func products() map[int64]domain.Product {
	return map[int64]domain.Product{1: l0, 2: l1}
}

type harness struct {
	mission domain.Mission
	files   *mockfile.Interface
	queue   *mockqueue.Interface
	logging *mocklogging.Interface
	runner  *runner.Runner
}

func newHarness(t *testing.T, sessionId int64) *harness {
	t.Helper()
	root := t.TempDir()
	mission := domain.Mission{Id: 1, Name: "themis", Rootdir: root, Incoming: "incoming"}
	for _, dir := range []string{mission.IncomingDir(), mission.CodeDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	files := mockfile.New()
	files.Impl.GetByFilename = func(_ context.Context, basename string) (domain.File, error) {
		return domain.File{}, domerr.ErrMissing
	}
	files.Impl.Register = func(_ context.Context, f domain.File) (domain.File, error) {
		f.Id = 77
		return f, nil
	}
	files.Impl.RecordLineage = func(_ context.Context, resultingFileId int64, sourceFileIds []int64, codeId int64) error {
		return nil
	}

	queue := mockqueue.New()
	queue.Impl.Push = func(_ context.Context, e domain.QueueEntry) error { return nil }

	logging := mocklogging.New()
	logging.Impl.AddSessionFile = func(_ context.Context, record domain.SessionFile) error { return nil }

	dispatcher := inspect.NewDispatcher(
		inspect.NewRegistry(),
		[]domain.Inspector{
			{Id: 1, Filename: inspect.EntryPointFormat, ProductId: 1, Active: true},
			{Id: 2, Filename: inspect.EntryPointFormat, ProductId: 2, Active: true},
		},
		products(),
	)
	quiet := log.New(io.Discard, "", 0)
	pipeline := ingest.New(mission, dispatcher, files, queue, products(), quiet)

	r := runner.New(mission, pipeline, files, logging, sessionId, quiet)
	r.ScratchRoot = t.TempDir()

	return &harness{mission: mission, files: files, queue: queue, logging: logging, runner: r}
}

// installCode drops an executable script under codes/ and returns its name.
func installCode(t *testing.T, mission domain.Mission, name, script string) {
	t.Helper()
	path := filepath.Join(mission.CodeDir(), name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
}

// installInput places a catalogued L0 file into the archive tree.
func installInput(t *testing.T, mission domain.Mission, file domain.File) {
	t.Helper()
	dir := filepath.Join(mission.Rootdir, "data", "l0")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, file.Filename), []byte("l0 payload"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testBuild(code domain.Code, inputs []domain.File) resolve.Build {
	return resolve.Build{
		Process:        domain.Process{Id: 10, Name: "l0_to_l1", OutputProductId: 2, OutputTimebase: domain.TimebaseDaily},
		Code:           code,
		OutputProduct:  l1,
		UtcFileDate:    day(2012, 1, 1),
		Inputs:         inputs,
		OutputFilename: "L1_20120101_v1.0.0.dat",
		Version:        v(1, 0, 0),
		State:          resolve.StateReady,
	}
}

func TestRunner(t *testing.T) {
	ctx, cancel := testutilctx.WithTest(context.Background(), t)
	defer cancel()

	input := domain.File{
		Id: 1, Filename: "L0_20120101_v1.0.0.dat", ProductId: 1,
		UtcFileDate:  day(2012, 1, 1),
		UtcStartTime: day(2012, 1, 1), UtcStopTime: day(2012, 1, 2),
		Version: v(1, 0, 0), NewestVersion: true, ExistsOnDisk: true,
	}
	code := domain.Code{
		Id: 100, Filename: "convert.sh", ProcessId: 10, Version: v(1, 0, 0),
		Active: true, NewestVersion: true, OutputInterfaceVersion: 1,
	}

	t.Run("a build produces, ingests and records lineage", func(t *testing.T) {
		h := newHarness(t, 5)
		installCode(t, h.mission, "convert.sh", "#!/bin/sh\ncat \"$1\" > \"$2\"\n")
		installInput(t, h.mission, input)

		fileId, err := h.runner.Run(ctx, testBuild(code, []domain.File{input}))
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if fileId != 77 {
			t.Errorf("file id: %d", fileId)
		}

		produced := filepath.Join(h.mission.Rootdir, "data", "l1", "L1_20120101_v1.0.0.dat")
		if _, err := os.Stat(produced); err != nil {
			t.Errorf("output is not in the archive: %v", err)
		}

		if len(h.files.Calls.RecordLineage) != 1 {
			t.Fatalf("lineage calls: %+v", h.files.Calls.RecordLineage)
		}
		lineage := h.files.Calls.RecordLineage[0]
		if lineage.ResultingFileId != 77 || lineage.CodeId != 100 {
			t.Errorf("lineage: %+v", lineage)
		}
		if len(lineage.SourceFileIds) != 1 || lineage.SourceFileIds[0] != 1 {
			t.Errorf("lineage sources: %+v", lineage.SourceFileIds)
		}

		if len(h.queue.Calls.Push) != 1 || h.queue.Calls.Push[0].FileId != 77 {
			t.Errorf("the output should go back onto the queue: %+v", h.queue.Calls.Push)
		}

		if len(h.logging.Calls.AddSessionFile) != 1 {
			t.Fatalf("audit calls: %+v", h.logging.Calls.AddSessionFile)
		}
		audit := h.logging.Calls.AddSessionFile[0]
		if audit.SessionId != 5 || audit.FileId != 77 || audit.CodeId != 100 {
			t.Errorf("audit row: %+v", audit)
		}

		if rest, err := os.ReadDir(h.runner.ScratchRoot); err != nil || len(rest) != 0 {
			t.Errorf("scratch not cleaned up: %v %v", rest, err)
		}
	})

	t.Run("argument tokens expand before the positional inputs", func(t *testing.T) {
		h := newHarness(t, 0)
		// $1=mission $2=date $3=input $4=output
		installCode(t, h.mission, "convert.sh",
			"#!/bin/sh\necho \"$1 $2\" > \"$4\"\ncat \"$3\" >> \"$4\"\n")
		installInput(t, h.mission, input)

		c := code
		c.Arguments = "{MISSION} {Y}{m}{d}"
		if _, err := h.runner.Run(ctx, testBuild(c, []domain.File{input})); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		produced := filepath.Join(h.mission.Rootdir, "data", "l1", "L1_20120101_v1.0.0.dat")
		content, err := os.ReadFile(produced)
		if err != nil {
			t.Fatal(err)
		}
		if want := "themis 20120101\nl0 payload"; string(content) != want {
			t.Errorf("output content: %q", string(content))
		}
	})

	t.Run("no output produced is a build error", func(t *testing.T) {
		h := newHarness(t, 0)
		installCode(t, h.mission, "convert.sh", "#!/bin/sh\nexit 1\n")
		installInput(t, h.mission, input)

		_, err := h.runner.Run(ctx, testBuild(code, []domain.File{input}))
		buildErr := runner.BuildError{}
		if !errors.As(err, &buildErr) {
			t.Fatalf("expected a build error, got %v", err)
		}
		if len(h.files.Calls.RecordLineage) != 0 {
			t.Errorf("no lineage should be recorded: %+v", h.files.Calls.RecordLineage)
		}
	})

	t.Run("a missing code path is fatal to the build", func(t *testing.T) {
		h := newHarness(t, 0)
		installInput(t, h.mission, input)

		if _, err := h.runner.Run(ctx, testBuild(code, []domain.File{input})); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("RunAll continues past failures and skips non-ready builds", func(t *testing.T) {
		h := newHarness(t, 0)
		installCode(t, h.mission, "convert.sh", "#!/bin/sh\ncat \"$1\" > \"$2\"\n")
		installInput(t, h.mission, input)

		good := testBuild(code, []domain.File{input})
		bad := testBuild(code, []domain.File{input})
		bad.OutputFilename = "L1_20120102_v1.0.0.dat"
		bad.Code.Filename = "missing.sh"
		skipped := testBuild(code, []domain.File{input})
		skipped.State = resolve.StateUpToDate

		result, err := h.runner.RunAll(ctx, []resolve.Build{bad, skipped, good})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if len(result.Done) != 1 || result.Done[0] != 77 {
			t.Errorf("done: %+v", result.Done)
		}
		if len(result.Failed) != 1 || result.Failed[0] != "L1_20120102_v1.0.0.dat" {
			t.Errorf("failed: %+v", result.Failed)
		}
		if result.Skipped != 1 {
			t.Errorf("skipped: %d", result.Skipped)
		}
	})
}
