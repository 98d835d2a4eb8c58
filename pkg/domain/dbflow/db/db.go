package db

import (
	filedb "github.com/opensdc/dbflow/pkg/domain/file/db"
	loggingdb "github.com/opensdc/dbflow/pkg/domain/logging/db"
	missiondb "github.com/opensdc/dbflow/pkg/domain/mission/db"
	processdb "github.com/opensdc/dbflow/pkg/domain/process/db"
	queuedb "github.com/opensdc/dbflow/pkg/domain/queue/db"
	releasedb "github.com/opensdc/dbflow/pkg/domain/release/db"
	schemadb "github.com/opensdc/dbflow/pkg/domain/schema/db"
)

// Database is the whole catalog, one accessor per entity area.
type Database interface {
	Mission() missiondb.Interface
	File() filedb.Interface
	Process() processdb.Interface
	Queue() queuedb.Interface
	Logging() loggingdb.Interface
	Release() releasedb.Interface
	Schema() schemadb.SchemaInterface

	Close() error
}
