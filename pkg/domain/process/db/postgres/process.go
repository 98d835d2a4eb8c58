package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/opensdc/dbflow/pkg/conn/db/postgres/pool"
	"github.com/opensdc/dbflow/pkg/domain"
	domerr "github.com/opensdc/dbflow/pkg/domain/errors"
	kpgerr "github.com/opensdc/dbflow/pkg/domain/errors/dberrors/postgres"
)

type processPG struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *processPG {
	return &processPG{pool: pool}
}

const processColumns = `
	"id", "name", "output_product_id", "output_timebase", "extra_params",
	coalesce("super_process_id", 0)
`

func scanProcess(row pgx.Row) (domain.Process, error) {
	var p domain.Process
	var timebase string
	if err := row.Scan(
		&p.Id, &p.Name, &p.OutputProductId, &timebase, &p.ExtraParams,
		&p.SuperProcessId,
	); err != nil {
		return domain.Process{}, err
	}
	tb, err := domain.AsTimebase(timebase)
	if err != nil {
		return domain.Process{}, err
	}
	p.OutputTimebase = tb
	return p, nil
}

const codeColumns = `
	"id", "filename", "relative_path", "process_id",
	"interface_version", "quality_version", "revision_version",
	"code_start_date", "code_stop_date",
	"active", "newest_version", "output_interface_version",
	"arguments", "date_written", "description", "ram", "cpu", "shasum"
`

func scanCode(row pgx.Row) (domain.Code, error) {
	var c domain.Code
	if err := row.Scan(
		&c.Id, &c.Filename, &c.RelativePath, &c.ProcessId,
		&c.Version.Interface, &c.Version.Quality, &c.Version.Revision,
		&c.CodeStartDate, &c.CodeStopDate,
		&c.Active, &c.NewestVersion, &c.OutputInterfaceVersion,
		&c.Arguments, &c.DateWritten, &c.Description, &c.Ram, &c.Cpu, &c.Shasum,
	); err != nil {
		return domain.Code{}, err
	}
	return c, nil
}

func (p *processPG) Get(ctx context.Context, processId int64) (domain.Process, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return domain.Process{}, err
	}
	defer conn.Release()

	proc, err := scanProcess(conn.QueryRow(
		ctx,
		`select `+processColumns+` from "process" where "id" = $1`,
		processId,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Process{}, kpgerr.Missing{
				Table: "process", Identity: fmt.Sprintf("id = %d", processId),
			}
		}
		return domain.Process{}, err
	}
	return proc, nil
}

func (p *processPG) GetByName(ctx context.Context, name string) (domain.Process, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return domain.Process{}, err
	}
	defer conn.Release()

	proc, err := scanProcess(conn.QueryRow(
		ctx,
		`select `+processColumns+` from "process" where "name" = $1`,
		name,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Process{}, kpgerr.Missing{
				Table: "process", Identity: fmt.Sprintf("name = %s", name),
			}
		}
		return domain.Process{}, err
	}
	return proc, nil
}

func (p *processPG) ChildrenOfProduct(ctx context.Context, productId int64) ([]domain.Process, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select `+processColumns+` from "process"
		where "id" in (
			select "process_id" from "productprocesslink"
			where "input_product_id" = $1
		)
		order by "id"
		`,
		productId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	processes := []domain.Process{}
	for rows.Next() {
		proc, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		processes = append(processes, proc)
	}
	return processes, nil
}

func (p *processPG) InputsOf(ctx context.Context, processId int64) ([]domain.ProductProcessLink, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "input_product_id", "process_id", "optional", "yesterday", "tomorrow"
		from "productprocesslink"
		where "process_id" = $1
		order by "input_product_id"
		`,
		processId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.ProductProcessLink{}
	for rows.Next() {
		var l domain.ProductProcessLink
		if err := rows.Scan(
			&l.InputProductId, &l.ProcessId, &l.Optional, &l.Yesterday, &l.Tomorrow,
		); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

func (p *processPG) NewestCode(ctx context.Context, processId int64) (domain.Code, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return domain.Code{}, err
	}
	defer conn.Release()

	return newestCode(ctx, conn, processId)
}

func newestCode(ctx context.Context, conn kpool.Queryer, processId int64) (domain.Code, error) {
	code, err := scanCode(conn.QueryRow(
		ctx,
		`
		select `+codeColumns+` from "code"
		where "process_id" = $1 and "active" and "newest_version"
		`,
		processId,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Code{}, kpgerr.Missing{
				Table:    "code",
				Identity: fmt.Sprintf("process_id = %d, active, newest_version", processId),
			}
		}
		return domain.Code{}, err
	}
	return code, nil
}

func (p *processPG) GetCode(ctx context.Context, codeId int64) (domain.Code, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return domain.Code{}, err
	}
	defer conn.Release()

	code, err := scanCode(conn.QueryRow(
		ctx,
		`select `+codeColumns+` from "code" where "id" = $1`,
		codeId,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Code{}, kpgerr.Missing{
				Table: "code", Identity: fmt.Sprintf("id = %d", codeId),
			}
		}
		return domain.Code{}, err
	}
	return code, nil
}

func (p *processPG) StartupProcesses(ctx context.Context) ([]domain.Process, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select `+processColumns+` from "process"
		where "output_timebase" = $1
		order by "id"
		`,
		string(domain.TimebaseStartup),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	processes := []domain.Process{}
	for rows.Next() {
		proc, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		processes = append(processes, proc)
	}
	return processes, nil
}

func (p *processPG) RegisterProcess(ctx context.Context, process domain.Process) (domain.Process, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return domain.Process{}, err
	}
	defer conn.Release()

	var superId interface{}
	if process.SuperProcessId != 0 {
		superId = process.SuperProcessId
	}

	if err := conn.QueryRow(
		ctx,
		`
		with "new" as (
			insert into "process"
				("name", "output_product_id", "output_timebase", "extra_params", "super_process_id")
			values ($1, $2, $3, $4, $5)
			on conflict ("name") do nothing
			returning `+processColumns+`
		)
		select * from "new"
		union all
		select `+processColumns+` from "process" where "name" = $1
		limit 1
		`,
		process.Name, process.OutputProductId, string(process.OutputTimebase),
		process.ExtraParams, superId,
	).Scan(
		&process.Id, &process.Name, &process.OutputProductId,
		new(string), &process.ExtraParams, &process.SuperProcessId,
	); err != nil {
		return domain.Process{}, kpgerr.AsConflict(err)
	}
	return process, nil
}

func (p *processPG) RegisterCode(ctx context.Context, code domain.Code) (domain.Code, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.Code{}, err
	}
	defer tx.Rollback(ctx)

	if code.NewestVersion {
		if _, err := tx.Exec(
			ctx,
			`
			update "code" set "newest_version" = false
			where "process_id" = $1 and "newest_version"
			`,
			code.ProcessId,
		); err != nil {
			return domain.Code{}, err
		}
	}

	if err := tx.QueryRow(
		ctx,
		`
		insert into "code" (
			"filename", "relative_path", "process_id",
			"interface_version", "quality_version", "revision_version",
			"code_start_date", "code_stop_date",
			"active", "newest_version", "output_interface_version",
			"arguments", "date_written", "description", "ram", "cpu", "shasum"
		)
		values (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15, $16, $17
		)
		returning "id"
		`,
		code.Filename, code.RelativePath, code.ProcessId,
		code.Version.Interface, code.Version.Quality, code.Version.Revision,
		code.CodeStartDate, code.CodeStopDate,
		code.Active, code.NewestVersion, code.OutputInterfaceVersion,
		code.Arguments, code.DateWritten, code.Description, code.Ram, code.Cpu, code.Shasum,
	).Scan(&code.Id); err != nil {
		return domain.Code{}, kpgerr.AsConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Code{}, err
	}
	return code, nil
}

func (p *processPG) RegisterInputLink(ctx context.Context, link domain.ProductProcessLink) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(
		ctx,
		`
		insert into "productprocesslink"
			("input_product_id", "process_id", "optional", "yesterday", "tomorrow")
		values ($1, $2, $3, $4, $5)
		on conflict ("input_product_id", "process_id") do update set
			"optional" = excluded."optional",
			"yesterday" = excluded."yesterday",
			"tomorrow" = excluded."tomorrow"
		`,
		link.InputProductId, link.ProcessId, link.Optional, link.Yesterday, link.Tomorrow,
	); err != nil {
		return kpgerr.AsConflict(err)
	}
	return nil
}

func (p *processPG) Traceback(ctx context.Context, processId int64) (domain.ProcessTraceback, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return domain.ProcessTraceback{}, err
	}
	defer conn.Release()

	proc, err := scanProcess(conn.QueryRow(
		ctx,
		`select `+processColumns+` from "process" where "id" = $1`,
		processId,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProcessTraceback{}, kpgerr.Missing{
				Table: "process", Identity: fmt.Sprintf("id = %d", processId),
			}
		}
		return domain.ProcessTraceback{}, err
	}

	tb := domain.ProcessTraceback{Process: proc}

	code, err := newestCode(ctx, conn, processId)
	if err != nil {
		// a process without active code is traceable; the code stays zero.
		if !errors.Is(err, domerr.ErrMissing) {
			return domain.ProcessTraceback{}, err
		}
	} else {
		tb.Code = code
	}

	rows, err := conn.Query(
		ctx,
		`
		select "input_product_id", "process_id", "optional", "yesterday", "tomorrow"
		from "productprocesslink"
		where "process_id" = $1
		order by "input_product_id"
		`,
		processId,
	)
	if err != nil {
		return domain.ProcessTraceback{}, err
	}
	defer rows.Close()

	tb.Inputs = []domain.ProductProcessLink{}
	for rows.Next() {
		var l domain.ProductProcessLink
		if err := rows.Scan(
			&l.InputProductId, &l.ProcessId, &l.Optional, &l.Yesterday, &l.Tomorrow,
		); err != nil {
			return domain.ProcessTraceback{}, err
		}
		tb.Inputs = append(tb.Inputs, l)
	}

	return tb, nil
}
