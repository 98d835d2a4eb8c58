package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	kpool "github.com/opensdc/dbflow/pkg/conn/db/postgres/pool"
	"github.com/opensdc/dbflow/pkg/domain"
	kpgerr "github.com/opensdc/dbflow/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/opensdc/dbflow/pkg/domain/internal/db/postgres"
)

type filePG struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *filePG {
	return &filePG{pool: pool}
}

func (f *filePG) Get(ctx context.Context, fileIds []int64) (map[int64]domain.File, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetFiles(ctx, conn, fileIds)
}

func (f *filePG) GetByFilename(ctx context.Context, basename string) (domain.File, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return domain.File{}, err
	}
	defer conn.Release()

	file, err := kpgintr.ScanFile(conn.QueryRow(
		ctx,
		`select `+kpgintr.FileColumns+` from "file" where "filename" = $1`,
		basename,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.File{}, kpgerr.Missing{
				Table: "file", Identity: fmt.Sprintf("filename = %s", basename),
			}
		}
		return domain.File{}, err
	}
	return file, nil
}

func (f *filePG) Register(ctx context.Context, file domain.File) (domain.File, error) {
	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return domain.File{}, err
	}
	defer tx.Rollback(ctx)

	// take the group lock first so concurrent registers of the same
	// (product, date) serialize before the newest flags are decided.
	if _, err := tx.Exec(
		ctx,
		`
		select "id" from "file"
		where "product_id" = $1 and "utc_file_date" = $2
		for update
		`,
		file.ProductId, file.UtcFileDate,
	); err != nil {
		return domain.File{}, err
	}

	newest := true
	var greatest domain.Version
	if err := tx.QueryRow(
		ctx,
		`
		select "interface_version", "quality_version", "revision_version"
		from "file"
		where "product_id" = $1 and "utc_file_date" = $2
		order by "interface_version" desc, "quality_version" desc, "revision_version" desc
		limit 1
		`,
		file.ProductId, file.UtcFileDate,
	).Scan(&greatest.Interface, &greatest.Quality, &greatest.Revision); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.File{}, err
		}
	} else {
		newest = greatest.Less(file.Version)
	}
	if newest {
		if _, err := tx.Exec(
			ctx,
			`
			update "file" set "newest_version" = false
			where "product_id" = $1 and "utc_file_date" = $2 and "newest_version"
			`,
			file.ProductId, file.UtcFileDate,
		); err != nil {
			return domain.File{}, err
		}
	}
	file.NewestVersion = newest

	if err := tx.QueryRow(
		ctx,
		`
		insert into "file" (
			"filename", "product_id", "utc_file_date",
			"utc_start_time", "utc_stop_time", "data_level",
			"interface_version", "quality_version", "revision_version",
			"file_create_date", "exists_on_disk", "newest_version",
			"quality_checked", "quality_comment", "caveats",
			"verbose_provenance", "met_start_time", "met_stop_time",
			"shasum", "process_keywords"
		)
		values (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
		returning "id"
		`,
		file.Filename, file.ProductId, file.UtcFileDate,
		file.UtcStartTime, file.UtcStopTime, file.DataLevel,
		file.Version.Interface, file.Version.Quality, file.Version.Revision,
		file.FileCreateDate, file.ExistsOnDisk, file.NewestVersion,
		file.QualityChecked, file.QualityComment, file.Caveats,
		file.VerboseProvenance, file.MetStartTime, file.MetStopTime,
		file.Shasum, file.ProcessKeywords,
	).Scan(&file.Id); err != nil {
		return domain.File{}, kpgerr.AsConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.File{}, kpgerr.AsConflict(err)
	}
	return file, nil
}

func (f *filePG) NewestByProductAndDate(ctx context.Context, productId int64, date time.Time) (domain.File, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return domain.File{}, err
	}
	defer conn.Release()

	file, err := kpgintr.ScanFile(conn.QueryRow(
		ctx,
		`
		select `+kpgintr.FileColumns+` from "file"
		where "product_id" = $1 and "utc_file_date" = $2 and "newest_version"
		`,
		productId, domain.TruncateDay(date),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.File{}, kpgerr.Missing{
				Table: "file",
				Identity: fmt.Sprintf(
					"product_id = %d, utc_file_date = %s",
					productId, date.Format("2006-01-02"),
				),
			}
		}
		return domain.File{}, err
	}
	return file, nil
}

func (f *filePG) NewestInRange(ctx context.Context, productId int64, first, last time.Time) ([]domain.File, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select `+kpgintr.FileColumns+` from "file"
		where "product_id" = $1
			and "utc_file_date" between $2 and $3
			and "newest_version"
		order by "utc_file_date"
		`,
		productId, domain.TruncateDay(first), domain.TruncateDay(last),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []domain.File{}
	for rows.Next() {
		file, err := kpgintr.ScanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (f *filePG) RecordLineage(ctx context.Context, resultingFileId int64, sourceFileIds []int64, codeId int64) error {
	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, sourceId := range sourceFileIds {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "filefilelink" ("source_file_id", "resulting_file_id")
			values ($1, $2)
			on conflict do nothing
			`,
			sourceId, resultingFileId,
		); err != nil {
			return kpgerr.AsConflict(err)
		}
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "filecodelink" ("resulting_file_id", "code_id")
		values ($1, $2)
		on conflict ("resulting_file_id") do update set "code_id" = excluded."code_id"
		`,
		resultingFileId, codeId,
	); err != nil {
		return kpgerr.AsConflict(err)
	}

	return tx.Commit(ctx)
}

func (f *filePG) Lineage(ctx context.Context, fileId int64) (domain.Lineage, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return domain.Lineage{}, err
	}
	defer conn.Release()

	var lin domain.Lineage
	if err := conn.QueryRow(
		ctx,
		`
		select
			"c"."id", "c"."filename", "c"."relative_path", "c"."process_id",
			"c"."interface_version", "c"."quality_version", "c"."revision_version",
			"c"."code_start_date", "c"."code_stop_date",
			"c"."active", "c"."newest_version", "c"."output_interface_version",
			"c"."arguments", "c"."date_written", "c"."description",
			"c"."ram", "c"."cpu", "c"."shasum"
		from "filecodelink" as "l"
		inner join "code" as "c" on "l"."code_id" = "c"."id"
		where "l"."resulting_file_id" = $1
		`,
		fileId,
	).Scan(
		&lin.Code.Id, &lin.Code.Filename, &lin.Code.RelativePath, &lin.Code.ProcessId,
		&lin.Code.Version.Interface, &lin.Code.Version.Quality, &lin.Code.Version.Revision,
		&lin.Code.CodeStartDate, &lin.Code.CodeStopDate,
		&lin.Code.Active, &lin.Code.NewestVersion, &lin.Code.OutputInterfaceVersion,
		&lin.Code.Arguments, &lin.Code.DateWritten, &lin.Code.Description,
		&lin.Code.Ram, &lin.Code.Cpu, &lin.Code.Shasum,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lineage{}, kpgerr.Missing{
				Table:    "filecodelink",
				Identity: fmt.Sprintf("resulting_file_id = %d", fileId),
			}
		}
		return domain.Lineage{}, err
	}

	rows, err := conn.Query(
		ctx,
		`
		select `+kpgintr.FileColumns+` from "file"
		where "id" in (
			select "source_file_id" from "filefilelink"
			where "resulting_file_id" = $1
		)
		order by "id"
		`,
		fileId,
	)
	if err != nil {
		return domain.Lineage{}, err
	}
	defer rows.Close()

	lin.Sources = []domain.File{}
	for rows.Next() {
		src, err := kpgintr.ScanFile(rows)
		if err != nil {
			return domain.Lineage{}, err
		}
		lin.Sources = append(lin.Sources, src)
	}
	return lin, nil
}

func (f *filePG) SetExistsOnDisk(ctx context.Context, fileId int64, exists bool) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`update "file" set "exists_on_disk" = $2 where "id" = $1`,
		fileId, exists,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "file", Identity: fmt.Sprintf("id = %d", fileId)}
	}
	return nil
}

func (f *filePG) OnDisk(ctx context.Context, limit int, after int64) ([]domain.File, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select `+kpgintr.FileColumns+` from "file"
		where "exists_on_disk" and "id" > $2
		order by "id"
		limit $1
		`,
		limit, after,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []domain.File{}
	for rows.Next() {
		file, err := kpgintr.ScanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (f *filePG) Purge(ctx context.Context, fileId int64) error {
	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, query := range []string{
		`delete from "processqueue" where "file_id" = $1`,
		`delete from "release" where "file_id" = $1`,
		`delete from "logging_file" where "file_id" = $1`,
		`delete from "filefilelink" where "source_file_id" = $1 or "resulting_file_id" = $1`,
		`delete from "filecodelink" where "resulting_file_id" = $1`,
	} {
		if _, err := tx.Exec(ctx, query, fileId); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, `delete from "file" where "id" = $1`, fileId)
	if err != nil {
		return kpgerr.AsConflict(err)
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "file", Identity: fmt.Sprintf("id = %d", fileId)}
	}

	return tx.Commit(ctx)
}

func (f *filePG) Traceback(ctx context.Context, fileId int64) (domain.FileTraceback, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return domain.FileTraceback{}, err
	}
	defer conn.Release()

	file, err := kpgintr.ScanFile(conn.QueryRow(
		ctx,
		`select `+kpgintr.FileColumns+` from "file" where "id" = $1`,
		fileId,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FileTraceback{}, kpgerr.Missing{
				Table: "file", Identity: fmt.Sprintf("id = %d", fileId),
			}
		}
		return domain.FileTraceback{}, err
	}

	tb, err := kpgintr.Traceback(ctx, conn, file.ProductId)
	if err != nil {
		return domain.FileTraceback{}, err
	}
	return domain.FileTraceback{Traceback: tb, File: file}, nil
}
