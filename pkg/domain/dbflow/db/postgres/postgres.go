package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/opensdc/dbflow/pkg/conn/db/postgres/pool"
	dbInterface "github.com/opensdc/dbflow/pkg/domain/dbflow/db"
	filedb "github.com/opensdc/dbflow/pkg/domain/file/db"
	kpgfile "github.com/opensdc/dbflow/pkg/domain/file/db/postgres"
	loggingdb "github.com/opensdc/dbflow/pkg/domain/logging/db"
	kpglogging "github.com/opensdc/dbflow/pkg/domain/logging/db/postgres"
	missiondb "github.com/opensdc/dbflow/pkg/domain/mission/db"
	kpgmission "github.com/opensdc/dbflow/pkg/domain/mission/db/postgres"
	processdb "github.com/opensdc/dbflow/pkg/domain/process/db"
	kpgprocess "github.com/opensdc/dbflow/pkg/domain/process/db/postgres"
	queuedb "github.com/opensdc/dbflow/pkg/domain/queue/db"
	kpgqueue "github.com/opensdc/dbflow/pkg/domain/queue/db/postgres"
	releasedb "github.com/opensdc/dbflow/pkg/domain/release/db"
	kpgrelease "github.com/opensdc/dbflow/pkg/domain/release/db/postgres"
	schemadb "github.com/opensdc/dbflow/pkg/domain/schema/db"
	kpgschema "github.com/opensdc/dbflow/pkg/domain/schema/db/postgres"
	xe "github.com/opensdc/dbflow/pkg/errors"
)

type catalogPostgres struct {
	pool    *pgxpool.Pool
	mission missiondb.Interface
	file    filedb.Interface
	process processdb.Interface
	queue   queuedb.Interface
	logging loggingdb.Interface
	release releasedb.Interface
	schema  schemadb.SchemaInterface
}

type Config struct {
	SchemaRepository string
}

type Option func(*Config) *Config

func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (dbInterface.Database, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := Config{}
	for _, option := range options {
		c = *option(&c)
	}

	p := kpool.Wrap(pool)
	var schema schemadb.SchemaInterface = kpgschema.Null()
	if c.SchemaRepository != "" {
		schema = kpgschema.New(p, c.SchemaRepository)
	}

	return &catalogPostgres{
		pool:    pool,
		mission: kpgmission.New(p),
		file:    kpgfile.New(p),
		process: kpgprocess.New(p),
		queue:   kpgqueue.New(p),
		logging: kpglogging.New(p),
		release: kpgrelease.New(p),
		schema:  schema,
	}, nil
}

func (c *catalogPostgres) Mission() missiondb.Interface {
	return c.mission
}

func (c *catalogPostgres) File() filedb.Interface {
	return c.file
}

func (c *catalogPostgres) Process() processdb.Interface {
	return c.process
}

func (c *catalogPostgres) Queue() queuedb.Interface {
	return c.queue
}

func (c *catalogPostgres) Logging() loggingdb.Interface {
	return c.logging
}

func (c *catalogPostgres) Release() releasedb.Interface {
	return c.release
}

func (c *catalogPostgres) Schema() schemadb.SchemaInterface {
	return c.schema
}

func (c *catalogPostgres) Close() error {
	c.pool.Close()
	return nil
}
