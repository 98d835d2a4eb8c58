package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/opensdc/dbflow/pkg/conn/db/postgres/pool"
	"github.com/opensdc/dbflow/pkg/domain"
	kpgerr "github.com/opensdc/dbflow/pkg/domain/errors/dberrors/postgres"
)

// GetFiles scans file rows by id. Ids not found are absent from the map.
func GetFiles(ctx context.Context, conn kpool.Queryer, fileIds []int64) (map[int64]domain.File, error) {
	files := map[int64]domain.File{}
	if len(fileIds) == 0 {
		return files, nil
	}

	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "filename", "product_id", "utc_file_date",
			"utc_start_time", "utc_stop_time", "data_level",
			"interface_version", "quality_version", "revision_version",
			"file_create_date", "exists_on_disk", "newest_version",
			"quality_checked",
			coalesce("quality_comment", ''), coalesce("caveats", ''),
			coalesce("verbose_provenance", ''),
			coalesce("met_start_time", ''), coalesce("met_stop_time", ''),
			coalesce("shasum", ''), coalesce("process_keywords", '')
		from "file"
		where "id" = any($1::bigint[])
		`,
		fileIds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		f, err := ScanFile(rows)
		if err != nil {
			return nil, err
		}
		files[f.Id] = f
	}
	return files, nil
}

// FileColumns is the select list ScanFile expects, in order.
const FileColumns = `
	"id", "filename", "product_id", "utc_file_date",
	"utc_start_time", "utc_stop_time", "data_level",
	"interface_version", "quality_version", "revision_version",
	"file_create_date", "exists_on_disk", "newest_version",
	"quality_checked",
	coalesce("quality_comment", ''), coalesce("caveats", ''),
	coalesce("verbose_provenance", ''),
	coalesce("met_start_time", ''), coalesce("met_stop_time", ''),
	coalesce("shasum", ''), coalesce("process_keywords", '')
`

// ScanFile reads one row of FileColumns.
func ScanFile(row pgx.Row) (domain.File, error) {
	var f domain.File
	if err := row.Scan(
		&f.Id, &f.Filename, &f.ProductId, &f.UtcFileDate,
		&f.UtcStartTime, &f.UtcStopTime, &f.DataLevel,
		&f.Version.Interface, &f.Version.Quality, &f.Version.Revision,
		&f.FileCreateDate, &f.ExistsOnDisk, &f.NewestVersion,
		&f.QualityChecked,
		&f.QualityComment, &f.Caveats,
		&f.VerboseProvenance,
		&f.MetStartTime, &f.MetStopTime,
		&f.Shasum, &f.ProcessKeywords,
	); err != nil {
		return domain.File{}, err
	}
	return f, nil
}

// Traceback resolves the ancestry of a product up to its mission.
//
// Shared between the mission catalog and the file catalog, which extends it
// per file.
func Traceback(ctx context.Context, conn kpool.Queryer, productId int64) (domain.Traceback, error) {
	var tb domain.Traceback
	if err := conn.QueryRow(
		ctx,
		`
		select
			"m"."id", "m"."name", "m"."rootdir", "m"."incoming_dir",
			"s"."id", "s"."name", "s"."mission_id",
			"i"."id", "i"."name", "i"."satellite_id",
			"p"."id", "p"."name", "p"."instrument_id",
			"p"."relative_path", "p"."format", "p"."level", "p"."description"
		from "product" as "p"
		inner join "instrument" as "i" on "p"."instrument_id" = "i"."id"
		inner join "satellite" as "s" on "i"."satellite_id" = "s"."id"
		inner join "mission" as "m" on "s"."mission_id" = "m"."id"
		where "p"."id" = $1
		`,
		productId,
	).Scan(
		&tb.Mission.Id, &tb.Mission.Name, &tb.Mission.Rootdir, &tb.Mission.Incoming,
		&tb.Satellite.Id, &tb.Satellite.Name, &tb.Satellite.MissionId,
		&tb.Instrument.Id, &tb.Instrument.Name, &tb.Instrument.SatelliteId,
		&tb.Product.Id, &tb.Product.Name, &tb.Product.InstrumentId,
		&tb.Product.RelativePath, &tb.Product.Format, &tb.Product.Level, &tb.Product.Description,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Traceback{}, kpgerr.Missing{
				Table: "product", Identity: fmt.Sprintf("id = %d", productId),
			}
		}
		return domain.Traceback{}, err
	}

	if err := conn.QueryRow(
		ctx,
		`
		select
			"id", "filename", "relative_path", "description", "product_id",
			"interface_version", "quality_version", "revision_version",
			"active", "arguments", "date_written",
			"output_interface_version", "newest_version"
		from "inspector"
		where "product_id" = $1 and "newest_version"
		`,
		productId,
	).Scan(
		&tb.Inspector.Id, &tb.Inspector.Filename, &tb.Inspector.RelativePath,
		&tb.Inspector.Description, &tb.Inspector.ProductId,
		&tb.Inspector.Version.Interface, &tb.Inspector.Version.Quality, &tb.Inspector.Version.Revision,
		&tb.Inspector.Active, &tb.Inspector.Arguments, &tb.Inspector.DateWritten,
		&tb.Inspector.OutputInterfaceVersion, &tb.Inspector.NewestVersion,
	); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		// a product without inspector is traceable; the inspector stays zero.
		return domain.Traceback{}, err
	}

	return tb, nil
}
