package building_test

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensdc/dbflow/cmd/dbflowd/tasks/building"
	"github.com/opensdc/dbflow/pkg/domain"
	domerr "github.com/opensdc/dbflow/pkg/domain/errors"
	mockfile "github.com/opensdc/dbflow/pkg/domain/file/db/mock"
	mocklogging "github.com/opensdc/dbflow/pkg/domain/logging/db/mock"
	mockprocess "github.com/opensdc/dbflow/pkg/domain/process/db/mock"
	mockqueue "github.com/opensdc/dbflow/pkg/domain/queue/db/mock"
	"github.com/opensdc/dbflow/pkg/ingest"
	"github.com/opensdc/dbflow/pkg/inspect"
	"github.com/opensdc/dbflow/pkg/resolve"
	"github.com/opensdc/dbflow/pkg/runner"
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

// TestTask drains a one-entry queue end to end: pop, resolve, build via a
// real subprocess, re-ingest the output.
func TestTask(t *testing.T) {
	ctx := context.Background()
	quiet := log.New(io.Discard, "", 0)

	root := t.TempDir()
	mission := domain.Mission{Id: 1, Name: "themis", Rootdir: root, Incoming: "incoming"}
	products := map[int64]domain.Product{
		1: {Id: 1, Name: "L0", RelativePath: "l0", Format: "L0_{Y}{m}{d}_v{VERSION}.dat"},
		2: {Id: 2, Name: "L1", RelativePath: "l1", Format: "L1_{Y}{m}{d}_v{VERSION}.dat"},
	}
	for _, dir := range []string{
		mission.IncomingDir(), mission.CodeDir(), filepath.Join(root, "data", "l0"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	trigger := domain.File{
		Id: 1, Filename: "L0_20120101_v1.0.0.dat", ProductId: 1,
		UtcFileDate:  day(2012, 1, 1),
		UtcStartTime: day(2012, 1, 1), UtcStopTime: day(2012, 1, 2),
		Version: v(1, 0, 0), NewestVersion: true, ExistsOnDisk: true,
	}
	if err := os.WriteFile(
		filepath.Join(root, "data", "l0", trigger.Filename), []byte("payload"), 0o644,
	); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(
		filepath.Join(mission.CodeDir(), "convert.sh"),
		[]byte("#!/bin/sh\ncat \"$1\" > \"$2\"\n"), 0o755,
	); err != nil {
		t.Fatal(err)
	}

	files := mockfile.New()
	files.Impl.Get = func(_ context.Context, fileIds []int64) (map[int64]domain.File, error) {
		return map[int64]domain.File{1: trigger}, nil
	}
	files.Impl.GetByFilename = func(_ context.Context, basename string) (domain.File, error) {
		return domain.File{}, domerr.ErrMissing
	}
	files.Impl.Register = func(_ context.Context, f domain.File) (domain.File, error) {
		f.Id = 2
		return f, nil
	}
	files.Impl.NewestInRange = func(_ context.Context, productId int64, first, last time.Time) ([]domain.File, error) {
		if productId == 1 {
			return []domain.File{trigger}, nil
		}
		return nil, nil
	}
	files.Impl.NewestByProductAndDate = func(_ context.Context, productId int64, date time.Time) (domain.File, error) {
		return domain.File{}, domerr.ErrMissing
	}
	files.Impl.RecordLineage = func(_ context.Context, resultingFileId int64, sourceFileIds []int64, codeId int64) error {
		return nil
	}

	queue := mockqueue.New()
	entries := []domain.QueueEntry{{FileId: 1, Bump: domain.BumpNone}}
	queue.Impl.Pop = func(_ context.Context, index int) (domain.QueueEntry, bool, error) {
		if len(entries) == 0 {
			return domain.QueueEntry{}, false, nil
		}
		head := entries[0]
		entries = entries[1:]
		return head, true, nil
	}
	queue.Impl.Push = func(_ context.Context, e domain.QueueEntry) error {
		// outputs do not re-queue in this test; the archive has one level
		return nil
	}

	processes := mockprocess.New()
	processes.Impl.ChildrenOfProduct = func(_ context.Context, productId int64) ([]domain.Process, error) {
		if productId != 1 {
			return nil, nil
		}
		return []domain.Process{
			{Id: 10, Name: "l0_to_l1", OutputProductId: 2, OutputTimebase: domain.TimebaseDaily},
		}, nil
	}
	processes.Impl.NewestCode = func(_ context.Context, processId int64) (domain.Code, error) {
		return domain.Code{
			Id: 100, Filename: "convert.sh", ProcessId: 10, Version: v(1, 0, 0),
			CodeStartDate: day(2000, 1, 1), CodeStopDate: day(2100, 1, 1),
			Active: true, NewestVersion: true, OutputInterfaceVersion: 1,
		}, nil
	}
	processes.Impl.InputsOf = func(_ context.Context, processId int64) ([]domain.ProductProcessLink, error) {
		return []domain.ProductProcessLink{{InputProductId: 1, ProcessId: 10}}, nil
	}

	dispatcher := inspect.NewDispatcher(
		inspect.NewRegistry(),
		[]domain.Inspector{
			{Id: 1, Filename: inspect.EntryPointFormat, ProductId: 2, Active: true},
		},
		products,
	)
	pipeline := ingest.New(mission, dispatcher, files, queue, products, quiet)
	resolver := resolve.New(mission, files, processes, products)
	run := runner.New(mission, pipeline, files, mocklogging.New(), 0, quiet)
	run.ScratchRoot = t.TempDir()

	task := building.Task(quiet, queue, files, resolver, run)

	stats, updated, err := task(ctx, building.Seed())
	if err != nil {
		t.Fatalf("task failed: %v", err)
	}
	if !updated {
		t.Error("a popped entry should report backlog")
	}
	if stats.Popped != 1 || stats.Built != 1 || stats.Failed != 0 {
		t.Errorf("stats: %+v", stats)
	}

	produced := filepath.Join(root, "data", "l1", "L1_20120101_v1.0.0.dat")
	if _, err := os.Stat(produced); err != nil {
		t.Errorf("output is not in the archive: %v", err)
	}

	stats, updated, err = task(ctx, stats)
	if err != nil {
		t.Fatalf("task failed: %v", err)
	}
	if updated {
		t.Error("an empty queue should not report backlog")
	}
	if stats.Popped != 1 {
		t.Errorf("stats: %+v", stats)
	}
}
