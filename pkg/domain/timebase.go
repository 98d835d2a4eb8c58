package domain

import (
	"fmt"
	"time"
)

// Timebase is the temporal grain at which a process produces outputs.
type Timebase string

const (
	// one output per input file. Inputs are matched by process keywords.
	TimebaseFile Timebase = "FILE"

	// one output per covered day.
	TimebaseDaily Timebase = "DAILY"

	// one output per ISO week (buckets start on Monday).
	TimebaseWeekly Timebase = "WEEKLY"

	// one output per calendar month.
	TimebaseMonthly Timebase = "MONTHLY"

	// one output per calendar year.
	TimebaseYearly Timebase = "YEARLY"

	// a single output per trigger file, regardless of its date span.
	TimebaseRun Timebase = "RUN"

	// scheduled once at pipeline start, independent of triggers.
	TimebaseStartup Timebase = "STARTUP"
)

func (tb Timebase) String() string {
	return string(tb)
}

func AsTimebase(s string) (Timebase, error) {
	switch Timebase(s) {
	case TimebaseFile, TimebaseDaily, TimebaseWeekly, TimebaseMonthly,
		TimebaseYearly, TimebaseRun, TimebaseStartup:
		return Timebase(s), nil
	default:
		return "", fmt.Errorf("'%s' is not a Timebase", s)
	}
}

// Bucket maps a covered day to the build date of its containing bucket.
//
// For FILE/DAILY/RUN the bucket is the day itself. WEEKLY buckets start on
// Monday, MONTHLY on the 1st, YEARLY on Jan 1st.
func (tb Timebase) Bucket(day time.Time) time.Time {
	day = TruncateDay(day)
	switch tb {
	case TimebaseWeekly:
		// back up to Monday
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case TimebaseMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	case TimebaseYearly:
		return time.Date(day.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// BucketEnd maps a bucket start to the last day of that bucket.
func (tb Timebase) BucketEnd(start time.Time) time.Time {
	start = TruncateDay(start)
	switch tb {
	case TimebaseWeekly:
		return start.AddDate(0, 0, 6)
	case TimebaseMonthly:
		return start.AddDate(0, 1, -1)
	case TimebaseYearly:
		return start.AddDate(1, 0, -1)
	default:
		return start
	}
}

// TruncateDay drops the time-of-day part, keeping the UTC date.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween enumerates every UTC day from first to last, inclusive.
func DaysBetween(first, last time.Time) []time.Time {
	first = TruncateDay(first)
	last = TruncateDay(last)
	if last.Before(first) {
		return nil
	}
	days := []time.Time{}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
