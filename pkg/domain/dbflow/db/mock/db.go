package mock

import (
	"context"

	dbflowdb "github.com/opensdc/dbflow/pkg/domain/dbflow/db"
	filedb "github.com/opensdc/dbflow/pkg/domain/file/db"
	mockfile "github.com/opensdc/dbflow/pkg/domain/file/db/mock"
	loggingdb "github.com/opensdc/dbflow/pkg/domain/logging/db"
	mocklogging "github.com/opensdc/dbflow/pkg/domain/logging/db/mock"
	missiondb "github.com/opensdc/dbflow/pkg/domain/mission/db"
	mockmission "github.com/opensdc/dbflow/pkg/domain/mission/db/mock"
	processdb "github.com/opensdc/dbflow/pkg/domain/process/db"
	mockprocess "github.com/opensdc/dbflow/pkg/domain/process/db/mock"
	queuedb "github.com/opensdc/dbflow/pkg/domain/queue/db"
	mockqueue "github.com/opensdc/dbflow/pkg/domain/queue/db/mock"
	releasedb "github.com/opensdc/dbflow/pkg/domain/release/db"
	mockrelease "github.com/opensdc/dbflow/pkg/domain/release/db/mock"
	schemadb "github.com/opensdc/dbflow/pkg/domain/schema/db"
)

// Database assembles the per-area mocks into the aggregate interface.
type Database struct {
	MissionMock *mockmission.Interface
	FileMock    *mockfile.Interface
	ProcessMock *mockprocess.Interface
	QueueMock   *mockqueue.Interface
	LoggingMock *mocklogging.Interface
	ReleaseMock *mockrelease.Interface
	SchemaMock  schemadb.SchemaInterface
}

func New() *Database {
	return &Database{
		MissionMock: mockmission.New(),
		FileMock:    mockfile.New(),
		ProcessMock: mockprocess.New(),
		QueueMock:   mockqueue.New(),
		LoggingMock: mocklogging.New(),
		ReleaseMock: mockrelease.New(),
	}
}

var _ dbflowdb.Database = &Database{}

func (d *Database) Mission() missiondb.Interface { return d.MissionMock }
func (d *Database) File() filedb.Interface       { return d.FileMock }
func (d *Database) Process() processdb.Interface { return d.ProcessMock }
func (d *Database) Queue() queuedb.Interface     { return d.QueueMock }
func (d *Database) Logging() loggingdb.Interface { return d.LoggingMock }
func (d *Database) Release() releasedb.Interface { return d.ReleaseMock }

func (d *Database) Schema() schemadb.SchemaInterface {
	if d.SchemaMock == nil {
		return nullSchema{}
	}
	return d.SchemaMock
}

func (d *Database) Close() error { return nil }

// nullSchema satisfies SchemaInterface for tests not touching migrations.
type nullSchema struct{}

func (nullSchema) Upgrade(ctx context.Context) error        { return nil }
func (nullSchema) Version(ctx context.Context) (int, error) { return 0, nil }
func (nullSchema) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	return ctx, func() {}
}
