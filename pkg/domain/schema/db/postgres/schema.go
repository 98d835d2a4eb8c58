package postgres

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	kpool "github.com/opensdc/dbflow/pkg/conn/db/postgres/pool"
)

// pgSchema tracks the catalog DDL against a schema repository directory.
//
// The repository holds one subdirectory per schema version, named by its
// number, each containing the .sql files that bring the catalog up to that
// version.
type pgSchema struct {
	pool       kpool.Pool
	repository string
}

func New(pool kpool.Pool, repository string) *pgSchema {
	return &pgSchema{pool: pool, repository: repository}
}

// migration is one versioned subdirectory of the schema repository.
type migration struct {
	number int
	dir    string
}

// run executes every .sql file under the migration directory, in walk order.
func (m migration) run(ctx context.Context, conn kpool.Queryer) error {
	return filepath.WalkDir(m.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		ddl, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = conn.Exec(ctx, string(ddl))
		return err
	})
}

// Version reads the schema version recorded in the catalog.
//
// A catalog without the bookkeeping table counts as version 0.
func (s *pgSchema) Version(ctx context.Context) (int, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return -1, err
	}
	defer conn.Release()

	var current int
	err = conn.QueryRow(
		ctx, `SELECT max("version") FROM "schema_version"`,
	).Scan(&current)
	if err != nil {
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) &&
			pgerr.Code == pgerrcode.UndefinedTable {
			return 0, nil
		}
		return -1, err
	}
	return current, nil
}

// Upgrade applies every migration newer than the recorded version, in one
// transaction.
func (s *pgSchema) Upgrade(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	migrations, err := s.migrations()
	if err != nil {
		return err
	}
	current, err := s.Version(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.number <= current {
			continue
		}
		if err := m.run(ctx, tx); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM "schema_version"`); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx, `INSERT INTO "schema_version" ("version") VALUES ($1)`, m.number,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Context derives a context that is cancelled (with cause) as soon as the
// repository carries a migration the catalog has not applied. The repository
// directory is watched, so dropping a new migration in stops a running
// daemon instead of letting it work against a stale schema.
func (s *pgSchema) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	cctx, cancel := context.WithCancelCause(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return cctx, func() {}
	}
	if err := watcher.Add(s.repository); err != nil {
		cancel(err)
		return cctx, func() {}
	}

	verify := func() {
		migrations, err := s.migrations()
		if err != nil {
			cancel(fmt.Errorf("failed to read schema repository: %w", err))
			return
		}
		current, err := s.Version(ctx)
		if err != nil {
			cancel(fmt.Errorf("failed to get current schema version: %w", err))
			return
		}
		for _, m := range migrations {
			if current < m.number {
				cancel(fmt.Errorf(
					"schema is outdated: %d (in db) < %d (in repository)",
					current, m.number,
				))
				return
			}
		}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-cctx.Done():
				return
			case ev := <-watcher.Events:
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
					continue
				}
				if filepath.Dir(ev.Name) != s.repository {
					continue
				}
				verify()
			}
		}
	}()

	verify()
	return cctx, func() { cancel(nil) }
}

// migrations lists the repository's versioned subdirectories, ascending.
// Entries that are not directories named by a number are ignored.
func (s *pgSchema) migrations() ([]migration, error) {
	entries, err := os.ReadDir(s.repository)
	if err != nil {
		return nil, err
	}

	found := make([]migration, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		n, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		found = append(found, migration{
			number: n,
			dir:    filepath.Join(s.repository, entry.Name()),
		})
	}
	slices.SortFunc(found, func(a, b migration) int {
		return cmp.Compare(a.number, b.number)
	})
	return found, nil
}

// Null is the schema handle used when no repository is configured. Upgrade
// is impossible and Context never expires.
func Null() *nullSchema {
	return &nullSchema{}
}

type nullSchema struct{}

func (nullSchema) Upgrade(ctx context.Context) error {
	return errors.New("no schema repository available")
}

func (nullSchema) Version(ctx context.Context) (int, error) {
	return -1, nil
}

func (nullSchema) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	return ctx, func() {}
}
