package domain

import "time"

// File is one archived file of a product.
//
// Invariant: for its (ProductId, UtcFileDate) at most one file has
// NewestVersion, and that file is the greatest by Version ordering.
type File struct {
	Id          int64
	Filename    string
	ProductId   int64
	UtcFileDate time.Time

	// coverage interval; start < stop.
	UtcStartTime time.Time
	UtcStopTime  time.Time

	// derived from the product level; never set by inspectors.
	DataLevel float64

	Version        Version
	FileCreateDate time.Time
	ExistsOnDisk   bool
	NewestVersion  bool

	QualityChecked    bool
	QualityComment    string
	Caveats           string
	VerboseProvenance string

	// mission elapsed time, when the instrument provides it.
	MetStartTime string
	MetStopTime  string

	Shasum string

	// opaque grouping key for files produced with the same non-default
	// options. Only FILE-timebase processes consult it.
	ProcessKeywords string
}

func (f *File) Equal(other *File) bool {
	if f == nil || other == nil {
		return f == nil && other == nil
	}
	return f.Id == other.Id &&
		f.Filename == other.Filename &&
		f.ProductId == other.ProductId &&
		f.UtcFileDate.Equal(other.UtcFileDate) &&
		f.UtcStartTime.Equal(other.UtcStartTime) &&
		f.UtcStopTime.Equal(other.UtcStopTime) &&
		f.Version.Equal(other.Version) &&
		f.NewestVersion == other.NewestVersion &&
		f.ExistsOnDisk == other.ExistsOnDisk
}

// CoveredDays enumerates every UTC day the file's coverage interval touches.
//
// A file stopping exactly at midnight does not cover the next day.
func (f *File) CoveredDays() []time.Time {
	stop := f.UtcStopTime
	if stop.Equal(TruncateDay(stop)) {
		stop = stop.Add(-time.Nanosecond)
	}
	return DaysBetween(f.UtcStartTime, stop)
}

// Lineage is the recorded ancestry of a produced file.
type Lineage struct {
	// files the build consumed, in declared input order.
	Sources []File

	// the code that produced the file.
	Code Code
}

// FileTraceback extends the product ancestry with the file itself.
type FileTraceback struct {
	Traceback
	File File
}
