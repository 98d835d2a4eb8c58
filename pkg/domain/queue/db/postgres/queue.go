package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	kpool "github.com/opensdc/dbflow/pkg/conn/db/postgres/pool"
	"github.com/opensdc/dbflow/pkg/domain"
	kpgerr "github.com/opensdc/dbflow/pkg/domain/errors/dberrors/postgres"
)

type queuePG struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *queuePG {
	return &queuePG{pool: pool}
}

func (q *queuePG) Push(ctx context.Context, entry domain.QueueEntry) error {
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	var bump interface{}
	if entry.Bump != domain.BumpNone {
		bump = int(entry.Bump)
	}

	if _, err := conn.Exec(
		ctx,
		`insert into "processqueue" ("file_id", "version_bump") values ($1, $2)`,
		entry.FileId, bump,
	); err != nil {
		return kpgerr.AsConflict(err)
	}
	return nil
}

func scanEntry(row pgx.Row) (position int64, entry domain.QueueEntry, err error) {
	var bump *int16
	if err := row.Scan(&position, &entry.FileId, &bump); err != nil {
		return 0, domain.QueueEntry{}, err
	}
	entry.Bump = domain.BumpNone
	if bump != nil {
		entry.Bump = domain.VersionBump(*bump)
	}
	return position, entry, nil
}

func (q *queuePG) Pop(ctx context.Context, index int) (domain.QueueEntry, bool, error) {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return domain.QueueEntry{}, false, err
	}
	defer tx.Rollback(ctx)

	position, entry, err := scanEntry(tx.QueryRow(
		ctx,
		`
		select "position", "file_id", "version_bump" from "processqueue"
		order by "position"
		offset $1 limit 1
		for update skip locked
		`,
		index,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.QueueEntry{}, false, nil
		}
		return domain.QueueEntry{}, false, err
	}

	if _, err := tx.Exec(
		ctx, `delete from "processqueue" where "position" = $1`, position,
	); err != nil {
		return domain.QueueEntry{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.QueueEntry{}, false, err
	}
	return entry, true, nil
}

func (q *queuePG) Get(ctx context.Context, index int) (domain.QueueEntry, bool, error) {
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return domain.QueueEntry{}, false, err
	}
	defer conn.Release()

	_, entry, err := scanEntry(conn.QueryRow(
		ctx,
		`
		select "position", "file_id", "version_bump" from "processqueue"
		order by "position"
		offset $1 limit 1
		`,
		index,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.QueueEntry{}, false, nil
		}
		return domain.QueueEntry{}, false, err
	}
	return entry, true, nil
}

func (q *queuePG) Len(ctx context.Context) (int, error) {
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var count int
	if err := conn.QueryRow(
		ctx, `select count(*) from "processqueue"`,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (q *queuePG) Flush(ctx context.Context) error {
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `delete from "processqueue"`)
	return err
}

func (q *queuePG) Remove(ctx context.Context, fileId int64) error {
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx, `delete from "processqueue" where "file_id" = $1`, fileId,
	)
	return err
}

func (q *queuePG) Clean(ctx context.Context) error {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(
		ctx,
		`
		select
			"q"."file_id",
			coalesce("q"."version_bump", -1),
			"f"."product_id",
			"f"."utc_file_date",
			"f"."interface_version", "f"."quality_version", "f"."revision_version"
		from "processqueue" as "q"
		inner join "file" as "f" on "q"."file_id" = "f"."id"
		order by "q"."position"
		for update of "q"
		`,
	)
	if err != nil {
		return err
	}

	type meta struct {
		key     domain.QueueEntryKey
		version domain.Version
	}
	entries := []domain.QueueEntry{}
	metas := map[int64]meta{}
	for rows.Next() {
		var e domain.QueueEntry
		var bump int16
		var m meta
		if err := rows.Scan(
			&e.FileId, &bump,
			&m.key.ProductId, &m.key.UtcFileDate,
			&m.version.Interface, &m.version.Quality, &m.version.Revision,
		); err != nil {
			rows.Close()
			return err
		}
		e.Bump = domain.VersionBump(bump)
		entries = append(entries, e)
		metas[e.FileId] = m
	}
	rows.Close()

	survivors := domain.CollapseQueue(
		entries,
		func(e domain.QueueEntry) (domain.QueueEntryKey, domain.Version, error) {
			m := metas[e.FileId]
			return m.key, m.version, nil
		},
	)

	// rewrite the queue in surviving order. Entries whose file rows are
	// gone are dropped with the rest.
	if _, err := tx.Exec(ctx, `delete from "processqueue"`); err != nil {
		return err
	}
	for _, e := range survivors {
		var bump interface{}
		if e.Bump != domain.BumpNone {
			bump = int(e.Bump)
		}
		if _, err := tx.Exec(
			ctx,
			`insert into "processqueue" ("file_id", "version_bump") values ($1, $2)`,
			e.FileId, bump,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Entries lists the queue head to tail, resolved to files.
func (q *queuePG) Entries(ctx context.Context, limit int) ([]domain.QueueEntry, error) {
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "position", "file_id", "version_bump" from "processqueue"
		order by "position"
		limit $1
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.QueueEntry{}
	for rows.Next() {
		_, e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
