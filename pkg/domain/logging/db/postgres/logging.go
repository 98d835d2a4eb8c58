package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	kpool "github.com/opensdc/dbflow/pkg/conn/db/postgres/pool"
	"github.com/opensdc/dbflow/pkg/domain"
	domerr "github.com/opensdc/dbflow/pkg/domain/errors"
	kpgerr "github.com/opensdc/dbflow/pkg/domain/errors/dberrors/postgres"
)

type loggingPG struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *loggingPG {
	return &loggingPG{pool: pool}
}

const sessionColumns = `
	"id", "session_uuid", "currently_processing", "pid", "hostname",
	"username", "mission_id", "start_time",
	coalesce("stop_time", to_timestamp(0)), "comment"
`

func scanSession(row pgx.Row) (domain.Session, error) {
	var s domain.Session
	if err := row.Scan(
		&s.Id, &s.SessionId, &s.CurrentlyProcessing, &s.Pid, &s.Hostname,
		&s.User, &s.MissionId, &s.StartTime, &s.StopTime, &s.Comment,
	); err != nil {
		return domain.Session{}, err
	}
	if s.StopTime.Equal(time.Unix(0, 0)) {
		s.StopTime = time.Time{}
	}
	return s, nil
}

func (l *loggingPG) StartSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	defer conn.Release()

	if err := conn.QueryRow(
		ctx,
		`
		insert into "logging" (
			"session_uuid", "currently_processing", "pid", "hostname",
			"username", "mission_id", "start_time", "comment"
		)
		values ($1, true, $2, $3, $4, $5, $6, $7)
		returning "id"
		`,
		session.SessionId, session.Pid, session.Hostname,
		session.User, session.MissionId, session.StartTime, session.Comment,
	).Scan(&session.Id); err != nil {
		// the partial unique index on the guard signals a concurrent holder.
		if pgErr := new(pgconn.PgError); errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.UniqueViolation {
				return domain.Session{}, fmt.Errorf(
					"%w: mission %d is processed by another session",
					domerr.ErrLocked, session.MissionId,
				)
			}
		}
		return domain.Session{}, kpgerr.AsConflict(err)
	}

	session.CurrentlyProcessing = true
	return session, nil
}

func (l *loggingPG) EndSession(ctx context.Context, sessionId int64, comment string) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		update "logging" set
			"currently_processing" = false,
			"stop_time" = now(),
			"comment" = case when $2 = '' then "comment" else $2 end
		where "id" = $1
		`,
		sessionId, comment,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "logging", Identity: fmt.Sprintf("id = %d", sessionId),
		}
	}
	return nil
}

func (l *loggingPG) CurrentSession(ctx context.Context) (domain.Session, bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return domain.Session{}, false, err
	}
	defer conn.Release()

	session, err := scanSession(conn.QueryRow(
		ctx,
		`select `+sessionColumns+` from "logging" where "currently_processing"`,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, err
	}
	return session, true, nil
}

func (l *loggingPG) ResetStale(ctx context.Context, comment string, alive func(pid int) bool) (bool, error) {
	if comment == "" {
		return false, errors.New("a comment is required to reset the processing guard")
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	session, err := scanSession(tx.QueryRow(
		ctx,
		`
		select `+sessionColumns+` from "logging"
		where "currently_processing"
		for update
		`,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if alive != nil && alive(session.Pid) {
		return false, fmt.Errorf(
			"%w: session %s (pid %d) is still running",
			domerr.ErrLocked, session.SessionId, session.Pid,
		)
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "logging" set
			"currently_processing" = false,
			"stop_time" = now(),
			"comment" = $2
		where "id" = $1
		`,
		session.Id, comment,
	); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (l *loggingPG) AddSessionFile(ctx context.Context, record domain.SessionFile) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	var codeId interface{}
	if record.CodeId != 0 {
		codeId = record.CodeId
	}

	if _, err := conn.Exec(
		ctx,
		`
		insert into "logging_file" ("logging_id", "file_id", "code_id", "comment")
		values ($1, $2, $3, $4)
		`,
		record.SessionId, record.FileId, codeId, record.Comment,
	); err != nil {
		return kpgerr.AsConflict(err)
	}
	return nil
}

func (l *loggingPG) RecentSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select `+sessionColumns+` from "logging"
		order by "start_time" desc, "id" desc
		limit $1
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
