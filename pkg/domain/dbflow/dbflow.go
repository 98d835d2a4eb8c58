package dbflow

import (
	"context"

	bconf "github.com/opensdc/dbflow/pkg/configs/backend"
	"github.com/opensdc/dbflow/pkg/domain/dbflow/db/postgres"
	"github.com/opensdc/dbflow/pkg/domain/file"
	"github.com/opensdc/dbflow/pkg/domain/logging"
	"github.com/opensdc/dbflow/pkg/domain/mission"
	"github.com/opensdc/dbflow/pkg/domain/process"
	"github.com/opensdc/dbflow/pkg/domain/queue"
	"github.com/opensdc/dbflow/pkg/domain/release"
	"github.com/opensdc/dbflow/pkg/domain/schema"
)

// Dbflow is the assembled catalog, one accessor per entity area.
type Dbflow interface {
	Config() *bconf.DbflowConfig

	Mission() mission.Interface
	File() file.Interface
	Process() process.Interface
	Queue() queue.Interface
	Logging() logging.Interface
	Release() release.Interface

	Schema() schema.Interface

	Close() error
}

type dbflow struct {
	config *bconf.DbflowConfig

	mission mission.Interface
	file    file.Interface
	process process.Interface
	queue   queue.Interface
	logging logging.Interface
	release release.Interface

	schema schema.Interface

	close func() error
}

func New(
	ctx context.Context,
	config *bconf.DbflowConfig,
	options ...Option,
) (Dbflow, error) {
	opt := &_options{}
	for _, o := range options {
		o(opt)
	}

	if config.SchemaRepository() != "" {
		opt.pg = append(opt.pg, postgres.WithSchemaRepository(config.SchemaRepository()))
	}

	pg, err := postgres.New(ctx, config.Database(), opt.pg...)
	if err != nil {
		return nil, err
	}

	return &dbflow{
		config: config,

		mission: mission.New(pg.Mission()),
		file:    file.New(pg.File()),
		process: process.New(pg.Process()),
		queue:   queue.New(pg.Queue()),
		logging: logging.New(pg.Logging()),
		release: release.New(pg.Release()),

		schema: schema.New(pg.Schema()),

		close: pg.Close,
	}, nil
}

type Option func(*_options)

type _options struct {
	pg []postgres.Option
}

func WithSchemaRepository(repository string) Option {
	return func(o *_options) {
		o.pg = append(o.pg, postgres.WithSchemaRepository(repository))
	}
}

func (d *dbflow) Config() *bconf.DbflowConfig {
	return d.config
}

func (d *dbflow) Mission() mission.Interface {
	return d.mission
}

func (d *dbflow) File() file.Interface {
	return d.file
}

func (d *dbflow) Process() process.Interface {
	return d.process
}

func (d *dbflow) Queue() queue.Interface {
	return d.queue
}

func (d *dbflow) Logging() logging.Interface {
	return d.logging
}

func (d *dbflow) Release() release.Interface {
	return d.release
}

func (d *dbflow) Schema() schema.Interface {
	return d.schema
}

func (d *dbflow) Close() error {
	return d.close()
}
