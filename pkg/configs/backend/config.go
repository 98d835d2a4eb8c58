package backend

import "time"

// Configuration for the dbflow daemon.
//
// to get `DbflowConfig` instance, use `DbflowConfigMarshall.TrySeal()` .
type DbflowConfig struct {
	port             int32
	database         string
	schemaRepository string
	mission          string
	loops            *LoopsConfig
}

// port the status API listens on.
func (c *DbflowConfig) Port() int32 {
	return c.port
}

// Connection string for database.
func (c *DbflowConfig) Database() string {
	return c.database
}

// Directory holding numbered schema migration directories.
func (c *DbflowConfig) SchemaRepository() string {
	return c.schemaRepository
}

// Mission to operate on. Empty selects the only mission in the catalog.
func (c *DbflowConfig) Mission() string {
	return c.mission
}

func (c *DbflowConfig) Loops() *LoopsConfig {
	return c.loops
}

// Intervals between idle passes of the recurring loops.
type LoopsConfig struct {
	ingest       time.Duration
	build        time.Duration
	housekeeping time.Duration
}

func (l *LoopsConfig) Ingest() time.Duration {
	return l.ingest
}

func (l *LoopsConfig) Build() time.Duration {
	return l.build
}

func (l *LoopsConfig) Housekeeping() time.Duration {
	return l.housekeeping
}
