package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/opensdc/dbflow/pkg/conn/db/postgres/pool"
	"github.com/opensdc/dbflow/pkg/domain"
	kpgerr "github.com/opensdc/dbflow/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/opensdc/dbflow/pkg/domain/internal/db/postgres"
)

type missionPG struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *missionPG {
	return &missionPG{pool: pool}
}

func (m *missionPG) GetMission(ctx context.Context, name string) (domain.Mission, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Mission{}, err
	}
	defer conn.Release()

	if name == "" {
		rows, err := conn.Query(
			ctx,
			`select "id", "name", "rootdir", "incoming_dir" from "mission" limit 2`,
		)
		if err != nil {
			return domain.Mission{}, err
		}
		defer rows.Close()

		found := []domain.Mission{}
		for rows.Next() {
			var ms domain.Mission
			if err := rows.Scan(&ms.Id, &ms.Name, &ms.Rootdir, &ms.Incoming); err != nil {
				return domain.Mission{}, err
			}
			found = append(found, ms)
		}
		switch len(found) {
		case 0:
			return domain.Mission{}, kpgerr.Missing{
				Table: "mission", Identity: "any mission",
			}
		case 1:
			return found[0], nil
		default:
			return domain.Mission{}, kpgerr.TooMuch{
				Table: "mission", Identity: "unnamed mission", Expected: 1,
			}
		}
	}

	var ms domain.Mission
	if err := conn.QueryRow(
		ctx,
		`select "id", "name", "rootdir", "incoming_dir" from "mission" where "name" = $1`,
		name,
	).Scan(&ms.Id, &ms.Name, &ms.Rootdir, &ms.Incoming); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Mission{}, kpgerr.Missing{
				Table: "mission", Identity: fmt.Sprintf("name = %s", name),
			}
		}
		return domain.Mission{}, err
	}
	return ms, nil
}

func (m *missionPG) RegisterMission(ctx context.Context, mission domain.Mission) (domain.Mission, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Mission{}, err
	}
	defer conn.Release()

	if err := conn.QueryRow(
		ctx,
		`
		with "new" as (
			insert into "mission" ("name", "rootdir", "incoming_dir")
			values ($1, $2, $3)
			on conflict ("name") do nothing
			returning "id", "name", "rootdir", "incoming_dir"
		)
		select "id", "name", "rootdir", "incoming_dir" from "new"
		union all
		select "id", "name", "rootdir", "incoming_dir" from "mission"
		where "name" = $1
		limit 1
		`,
		mission.Name, mission.Rootdir, mission.Incoming,
	).Scan(&mission.Id, &mission.Name, &mission.Rootdir, &mission.Incoming); err != nil {
		return domain.Mission{}, kpgerr.AsConflict(err)
	}
	return mission, nil
}

func (m *missionPG) RegisterSatellite(ctx context.Context, satellite domain.Satellite) (domain.Satellite, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Satellite{}, err
	}
	defer conn.Release()

	if err := conn.QueryRow(
		ctx,
		`
		with "new" as (
			insert into "satellite" ("name", "mission_id")
			values ($1, $2)
			on conflict ("name", "mission_id") do nothing
			returning "id", "name", "mission_id"
		)
		select "id", "name", "mission_id" from "new"
		union all
		select "id", "name", "mission_id" from "satellite"
		where "name" = $1 and "mission_id" = $2
		limit 1
		`,
		satellite.Name, satellite.MissionId,
	).Scan(&satellite.Id, &satellite.Name, &satellite.MissionId); err != nil {
		return domain.Satellite{}, kpgerr.AsConflict(err)
	}
	return satellite, nil
}

func (m *missionPG) RegisterInstrument(ctx context.Context, instrument domain.Instrument) (domain.Instrument, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Instrument{}, err
	}
	defer conn.Release()

	if err := conn.QueryRow(
		ctx,
		`
		with "new" as (
			insert into "instrument" ("name", "satellite_id")
			values ($1, $2)
			on conflict ("name", "satellite_id") do nothing
			returning "id", "name", "satellite_id"
		)
		select "id", "name", "satellite_id" from "new"
		union all
		select "id", "name", "satellite_id" from "instrument"
		where "name" = $1 and "satellite_id" = $2
		limit 1
		`,
		instrument.Name, instrument.SatelliteId,
	).Scan(&instrument.Id, &instrument.Name, &instrument.SatelliteId); err != nil {
		return domain.Instrument{}, kpgerr.AsConflict(err)
	}
	return instrument, nil
}

func (m *missionPG) RegisterProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(
		ctx,
		`
		with "new" as (
			insert into "product"
				("name", "instrument_id", "relative_path", "format", "level", "description")
			values ($1, $2, $3, $4, $5, $6)
			on conflict ("name", "instrument_id") do nothing
			returning "id", "name", "instrument_id", "relative_path", "format", "level", "description"
		)
		select "id", "name", "instrument_id", "relative_path", "format", "level", "description"
		from "new"
		union all
		select "id", "name", "instrument_id", "relative_path", "format", "level", "description"
		from "product"
		where "name" = $1 and "instrument_id" = $2
		limit 1
		`,
		product.Name, product.InstrumentId, product.RelativePath,
		product.Format, product.Level, product.Description,
	).Scan(
		&product.Id, &product.Name, &product.InstrumentId, &product.RelativePath,
		&product.Format, &product.Level, &product.Description,
	); err != nil {
		return domain.Product{}, kpgerr.AsConflict(err)
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "instrumentproductlink" ("instrument_id", "product_id")
		values ($1, $2)
		on conflict do nothing
		`,
		product.InstrumentId, product.Id,
	); err != nil {
		return domain.Product{}, kpgerr.AsConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (m *missionPG) RegisterInspector(ctx context.Context, inspector domain.Inspector) (domain.Inspector, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Inspector{}, err
	}
	defer conn.Release()

	if err := conn.QueryRow(
		ctx,
		`
		insert into "inspector" (
			"filename", "relative_path", "description", "product_id",
			"interface_version", "quality_version", "revision_version",
			"active", "arguments", "date_written",
			"output_interface_version", "newest_version"
		)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)
		on conflict ("product_id") do update set
			"filename" = excluded."filename",
			"relative_path" = excluded."relative_path",
			"description" = excluded."description",
			"interface_version" = excluded."interface_version",
			"quality_version" = excluded."quality_version",
			"revision_version" = excluded."revision_version",
			"active" = excluded."active",
			"arguments" = excluded."arguments",
			"date_written" = excluded."date_written",
			"output_interface_version" = excluded."output_interface_version"
		returning "id"
		`,
		inspector.Filename, inspector.RelativePath, inspector.Description,
		inspector.ProductId,
		inspector.Version.Interface, inspector.Version.Quality, inspector.Version.Revision,
		inspector.Active, inspector.Arguments, inspector.DateWritten,
		inspector.OutputInterfaceVersion,
	).Scan(&inspector.Id); err != nil {
		return domain.Inspector{}, kpgerr.AsConflict(err)
	}
	inspector.NewestVersion = true
	return inspector, nil
}

func (m *missionPG) GetProduct(ctx context.Context, productId int64) (domain.Product, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	defer conn.Release()

	return getProduct(
		ctx, conn, `where "id" = $1`, fmt.Sprintf("id = %d", productId), productId,
	)
}

func (m *missionPG) GetProductByName(ctx context.Context, name string) (domain.Product, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	defer conn.Release()

	return getProduct(
		ctx, conn, `where "name" = $1`, fmt.Sprintf("name = %s", name), name,
	)
}

func getProduct(
	ctx context.Context, conn kpool.Queryer,
	where string, identity string, arg interface{},
) (domain.Product, error) {
	var p domain.Product
	if err := conn.QueryRow(
		ctx,
		`
		select "id", "name", "instrument_id", "relative_path", "format", "level", "description"
		from "product" `+where,
		arg,
	).Scan(
		&p.Id, &p.Name, &p.InstrumentId, &p.RelativePath,
		&p.Format, &p.Level, &p.Description,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, kpgerr.Missing{Table: "product", Identity: identity}
		}
		return domain.Product{}, err
	}
	return p, nil
}

func (m *missionPG) Products(ctx context.Context) ([]domain.Product, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "id", "name", "instrument_id", "relative_path", "format", "level", "description"
		from "product"
		order by "id"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.Id, &p.Name, &p.InstrumentId, &p.RelativePath,
			&p.Format, &p.Level, &p.Description,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (m *missionPG) ActiveInspectors(ctx context.Context) ([]domain.Inspector, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "filename", "relative_path", "description", "product_id",
			"interface_version", "quality_version", "revision_version",
			"active", "arguments", "date_written",
			"output_interface_version", "newest_version"
		from "inspector"
		where "active" and "newest_version"
		order by "id"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inspectors := []domain.Inspector{}
	for rows.Next() {
		var i domain.Inspector
		if err := rows.Scan(
			&i.Id, &i.Filename, &i.RelativePath, &i.Description, &i.ProductId,
			&i.Version.Interface, &i.Version.Quality, &i.Version.Revision,
			&i.Active, &i.Arguments, &i.DateWritten,
			&i.OutputInterfaceVersion, &i.NewestVersion,
		); err != nil {
			return nil, err
		}
		inspectors = append(inspectors, i)
	}
	return inspectors, nil
}

func (m *missionPG) Traceback(ctx context.Context, productId int64) (domain.Traceback, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Traceback{}, err
	}
	defer conn.Release()

	return kpgintr.Traceback(ctx, conn, productId)
}
