package postgres

import (
	"context"

	kpool "github.com/opensdc/dbflow/pkg/conn/db/postgres/pool"
	"github.com/opensdc/dbflow/pkg/conn/db/postgres/scanner"
	kpgerr "github.com/opensdc/dbflow/pkg/domain/errors/dberrors/postgres"
)

type releasePG struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *releasePG {
	return &releasePG{pool: pool}
}

func (r *releasePG) Tag(ctx context.Context, releaseNum int) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		insert into "release" ("file_id", "release_num")
		select "id", $1 from "file" where "newest_version"
		on conflict do nothing
		`,
		releaseNum,
	)
	if err != nil {
		return 0, kpgerr.AsConflict(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *releasePG) FilesOf(ctx context.Context, releaseNum int) ([]int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return scanner.New[int64]().QueryAll(
		ctx, conn,
		`
		select "file_id" from "release"
		where "release_num" = $1
		order by "file_id"
		`,
		releaseNum,
	)
}
