package housekeeping_test

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensdc/dbflow/cmd/dbflowd/tasks/housekeeping"
	"github.com/opensdc/dbflow/pkg/domain"
	mockfile "github.com/opensdc/dbflow/pkg/domain/file/db/mock"
	mockqueue "github.com/opensdc/dbflow/pkg/domain/queue/db/mock"
	"github.com/opensdc/dbflow/pkg/ingest"
	"github.com/opensdc/dbflow/pkg/inspect"
)

func TestTask(t *testing.T) {
	ctx := context.Background()
	quiet := log.New(io.Discard, "", 0)

	root := t.TempDir()
	mission := domain.Mission{Id: 1, Name: "themis", Rootdir: root, Incoming: "incoming"}
	products := map[int64]domain.Product{
		1: {Id: 1, Name: "L0", RelativePath: "l0", Format: "L0_{Y}{m}{d}_v{VERSION}.dat"},
	}

	date := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	version, _ := domain.NewVersion(1, 0, 0)
	present := domain.File{
		Id: 1, Filename: "L0_20120101_v1.0.0.dat", ProductId: 1,
		UtcFileDate: date, Version: version, ExistsOnDisk: true,
	}
	vanished := domain.File{
		Id: 2, Filename: "L0_20120102_v1.0.0.dat", ProductId: 1,
		UtcFileDate: date.AddDate(0, 0, 1), Version: version, ExistsOnDisk: true,
	}

	if err := os.MkdirAll(filepath.Join(root, "data", "l0"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "data", "l0", present.Filename), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	files := mockfile.New()
	pages := [][]domain.File{{present, vanished}, {}}
	files.Impl.OnDisk = func(_ context.Context, limit int, after int64) ([]domain.File, error) {
		page := pages[0]
		pages = pages[1:]
		return page, nil
	}
	files.Impl.SetExistsOnDisk = func(_ context.Context, fileId int64, exists bool) error {
		return nil
	}

	dispatcher := inspect.NewDispatcher(inspect.NewRegistry(), nil, products)
	pipeline := ingest.New(mission, dispatcher, files, mockqueue.New(), products, quiet)

	task := housekeeping.Task(quiet, files, pipeline)

	cursor, updated, err := task(ctx, housekeeping.Seed())
	if err != nil {
		t.Fatalf("task failed: %v", err)
	}
	if !updated {
		t.Error("a non-empty page should report backlog")
	}
	if cursor.After != 2 {
		t.Errorf("cursor: %+v", cursor)
	}

	if len(files.Calls.SetExistsOnDisk) != 1 {
		t.Fatalf("flag flips: %+v", files.Calls.SetExistsOnDisk)
	}
	if flip := files.Calls.SetExistsOnDisk[0]; flip.FileId != 2 || flip.Exists {
		t.Errorf("flag flip: %+v", flip)
	}

	cursor, updated, err = task(ctx, cursor)
	if err != nil {
		t.Fatalf("task failed: %v", err)
	}
	if updated {
		t.Error("an exhausted walk should not report backlog")
	}
	if cursor.After != 0 {
		t.Errorf("cursor should rewind: %+v", cursor)
	}
}
