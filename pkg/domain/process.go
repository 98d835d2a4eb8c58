package domain

import "time"

// Process declares how files of input products combine into one output
// product, at the grain of its output timebase.
type Process struct {
	Id              int64
	Name            string
	OutputProductId int64
	OutputTimebase  Timebase
	ExtraParams     string

	// optional parent process; 0 when none.
	SuperProcessId int64
}

func (p *Process) Equal(other *Process) bool {
	if p == nil || other == nil {
		return p == nil && other == nil
	}
	return p.Id == other.Id &&
		p.Name == other.Name &&
		p.OutputProductId == other.OutputProductId &&
		p.OutputTimebase == other.OutputTimebase &&
		p.ExtraParams == other.ExtraParams &&
		p.SuperProcessId == other.SuperProcessId
}

// Code is an external executable implementing a process.
//
// At most one code per process has NewestVersion && Active, and that one is
// the greatest by Version ordering.
type Code struct {
	Id           int64
	Filename     string
	RelativePath string
	ProcessId    int64
	Version      Version

	// the code only applies to build dates within [start, stop).
	CodeStartDate time.Time
	CodeStopDate  time.Time

	Active        bool
	NewestVersion bool

	// interface component of output file versions this code produces.
	OutputInterfaceVersion int

	// whitespace-separated argument template, token-substituted at build time.
	Arguments string

	DateWritten string
	Description string
	Ram         int
	Cpu         int
	Shasum      string
}

// AppliesTo reports whether the code covers the given build date.
func (c *Code) AppliesTo(day time.Time) bool {
	day = TruncateDay(day)
	return !day.Before(TruncateDay(c.CodeStartDate)) && day.Before(TruncateDay(c.CodeStopDate))
}

// ProductProcessLink declares that a process consumes files of an input
// product on each build day. Yesterday and Tomorrow widen the window by that
// many days before/after the build date.
type ProductProcessLink struct {
	InputProductId int64
	ProcessId      int64
	Optional       bool
	Yesterday      int
	Tomorrow       int
}

// FileFileLink records parent -> child lineage for a produced file.
type FileFileLink struct {
	SourceFileId    int64
	ResultingFileId int64
}

// FileCodeLink records which code produced a file.
type FileCodeLink struct {
	ResultingFileId int64
	CodeId          int64
}

// InstrumentProductLink attaches a product to an instrument.
type InstrumentProductLink struct {
	InstrumentId int64
	ProductId    int64
}
