package filename

import (
	"regexp"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
)

// helper utilities exposed to inspector plug-ins.

var (
	yyyymmdd = regexp.MustCompile(`(?:19|2\d)\d\d(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])`)
	yyyymm   = regexp.MustCompile(`(?:19|2\d)\d\d(?:0[1-9]|1[0-2])`)
	version  = regexp.MustCompile(`v(\d+)\.(\d+)\.(\d+)`)
)

// ExtractYYYYMMDD finds the first valid YYYYMMDD date in a filename.
func ExtractYYYYMMDD(name string) (time.Time, bool) {
	for _, candidate := range yyyymmdd.FindAllString(name, -1) {
		if t, err := time.ParseInLocation("20060102", candidate, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExtractYYYYMM finds the first valid YYYYMM month in a filename.
func ExtractYYYYMM(name string) (time.Time, bool) {
	for _, candidate := range yyyymm.FindAllString(name, -1) {
		if t, err := time.ParseInLocation("200601", candidate, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidDate reports whether s is a real YYYYMMDD date.
func ValidDate(s string) bool {
	_, err := time.ParseInLocation("20060102", s, time.UTC)
	return err == nil
}

// ExtractVersion finds the first `vX.Y.Z` fragment in a filename.
//
// Returns the version and the part of the name before the fragment.
func ExtractVersion(name string) (domain.Version, string, bool) {
	loc := version.FindStringSubmatchIndex(name)
	if loc == nil {
		return domain.Version{}, "", false
	}
	v, err := domain.ParseVersion(name[loc[2]:loc[3]] + "." + name[loc[4]:loc[5]] + "." + name[loc[6]:loc[7]])
	if err != nil {
		return domain.Version{}, "", false
	}
	return v, name[:loc[0]], true
}
