package inspect_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
	"github.com/opensdc/dbflow/pkg/inspect"
	"github.com/opensdc/dbflow/pkg/utils/try"
)

func dropFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseArguments(t *testing.T) {
	for name, testcase := range map[string]struct {
		arguments string
		expected  map[string]string
	}{
		"empty": {
			arguments: "",
			expected:  map[string]string{},
		},
		"key-value pairs": {
			arguments: "pattern=tha_.* strict=1",
			expected:  map[string]string{"pattern": "tha_.*", "strict": "1"},
		},
		"bare word": {
			arguments: "verbose",
			expected:  map[string]string{"verbose": ""},
		},
	} {
		t.Run(name, func(t *testing.T) {
			actual := inspect.ParseArguments(testcase.arguments)
			if len(actual) != len(testcase.expected) {
				t.Fatalf("unexpected args: %+v", actual)
			}
			for k, v := range testcase.expected {
				if actual[k] != v {
					t.Errorf("args[%s]: got %q, want %q", k, actual[k], v)
				}
			}
		})
	}
}

func TestDispatcher(t *testing.T) {
	l0 := domain.Product{
		Id: 1, Name: "L0", Level: 0,
		Format: "L0_{Y}{m}{d}_v{VERSION}.dat",
	}
	l1 := domain.Product{
		Id: 2, Name: "L1", Level: 1,
		Format: "L1_{Y}{m}{d}_v{VERSION}.dat",
	}
	products := map[int64]domain.Product{1: l0, 2: l1}
	rows := []domain.Inspector{
		{Id: 1, Filename: inspect.EntryPointFormat, ProductId: 1, Active: true},
		{Id: 2, Filename: inspect.EntryPointFormat, ProductId: 2, Active: true},
	}

	t.Run("it claims a file matching exactly one product format", func(t *testing.T) {
		dir := t.TempDir()
		path := dropFile(t, dir, "L0_20120101_v1.2.3.dat", "payload")

		d := inspect.NewDispatcher(inspect.NewRegistry(), rows, products)
		file := try.To(d.Classify(context.Background(), path)).OrFatal(t)

		if file.ProductId != 1 {
			t.Errorf("product: got %d, want 1", file.ProductId)
		}
		expectedDate := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
		if !file.UtcFileDate.Equal(expectedDate) {
			t.Errorf("utc_file_date: got %s", file.UtcFileDate)
		}
		if !file.UtcStartTime.Equal(expectedDate) ||
			!file.UtcStopTime.Equal(expectedDate.AddDate(0, 0, 1)) {
			t.Errorf(
				"coverage: got [%s, %s]", file.UtcStartTime, file.UtcStopTime,
			)
		}
		if file.Version != (domain.Version{Interface: 1, Quality: 2, Revision: 3}) {
			t.Errorf("version: got %s", file.Version)
		}
		if file.DataLevel != 0 {
			t.Errorf("data_level should come from the product: got %f", file.DataLevel)
		}
		if !file.ExistsOnDisk {
			t.Error("exists_on_disk should be set")
		}
		if file.Shasum == "" {
			t.Error("shasum should be computed")
		}
	})

	t.Run("it defaults the version when the format has no version token", func(t *testing.T) {
		unversioned := map[int64]domain.Product{
			1: {Id: 1, Name: "HK", Format: "HK_{Y}{m}{d}.dat"},
		}
		dir := t.TempDir()
		path := dropFile(t, dir, "HK_20120101.dat", "payload")

		d := inspect.NewDispatcher(
			inspect.NewRegistry(),
			[]domain.Inspector{
				{Id: 1, Filename: inspect.EntryPointFormat, ProductId: 1, Active: true},
			},
			unversioned,
		)
		file := try.To(d.Classify(context.Background(), path)).OrFatal(t)

		if file.Version != (domain.Version{Interface: 1}) {
			t.Errorf("version: got %s, want 1.0.0", file.Version)
		}
	})

	t.Run("it rejects a file no inspector claims", func(t *testing.T) {
		dir := t.TempDir()
		path := dropFile(t, dir, "garbage.bin", "junk")

		d := inspect.NewDispatcher(inspect.NewRegistry(), rows, products)
		_, err := d.Classify(context.Background(), path)

		if !errors.Is(err, inspect.ErrUnclaimed) {
			t.Errorf("expected ErrUnclaimed, got %v", err)
		}
		var ce inspect.ClassificationError
		if !errors.As(err, &ce) || ce.Path != path {
			t.Errorf("error should carry the path: %v", err)
		}
	})

	t.Run("it rejects a file claimed by two inspectors", func(t *testing.T) {
		ambiguous := map[int64]domain.Product{
			1: {Id: 1, Name: "A", Format: "X_{Y}{m}{d}.dat"},
			2: {Id: 2, Name: "B", Format: "X_{Y}{m}{d}.dat"},
		}
		dir := t.TempDir()
		path := dropFile(t, dir, "X_20120101.dat", "payload")

		d := inspect.NewDispatcher(inspect.NewRegistry(), rows, ambiguous)
		_, err := d.Classify(context.Background(), path)

		if !errors.Is(err, inspect.ErrAmbiguous) {
			t.Errorf("expected ErrAmbiguous, got %v", err)
		}
	})

	t.Run("it skips inactive inspectors", func(t *testing.T) {
		dir := t.TempDir()
		path := dropFile(t, dir, "L0_20120101_v1.0.0.dat", "payload")

		inactive := []domain.Inspector{
			{Id: 1, Filename: inspect.EntryPointFormat, ProductId: 1, Active: false},
		}
		d := inspect.NewDispatcher(inspect.NewRegistry(), inactive, products)
		_, err := d.Classify(context.Background(), path)

		if !errors.Is(err, inspect.ErrUnclaimed) {
			t.Errorf("expected ErrUnclaimed, got %v", err)
		}
	})

	t.Run("it rejects a claim with an empty coverage interval", func(t *testing.T) {
		registry := inspect.NewRegistry()
		registry.Register("broken", inspect.InspectorFunc(
			func(_ context.Context, f *inspect.DiskFile, _ domain.Product, _ map[string]string) (bool, error) {
				f.UtcFileDate = time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
				f.UtcStartTime = f.UtcFileDate
				f.UtcStopTime = f.UtcFileDate // start == stop
				f.Version = domain.Version{Interface: 1}
				return true, nil
			},
		))

		dir := t.TempDir()
		path := dropFile(t, dir, "whatever.dat", "payload")

		d := inspect.NewDispatcher(
			registry,
			[]domain.Inspector{{Id: 1, Filename: "broken", ProductId: 1, Active: true}},
			products,
		)
		if _, err := d.Classify(context.Background(), path); err == nil {
			t.Error("no error although the coverage interval is empty")
		}
	})

	t.Run("it fails on an unregistered entry point", func(t *testing.T) {
		dir := t.TempDir()
		path := dropFile(t, dir, "L0_20120101_v1.0.0.dat", "payload")

		d := inspect.NewDispatcher(
			inspect.NewRegistry(),
			[]domain.Inspector{{Id: 1, Filename: "no_such_plugin", ProductId: 1, Active: true}},
			products,
		)
		if _, err := d.Classify(context.Background(), path); err == nil {
			t.Error("no error although the entry point is not registered")
		}
	})
}
