package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidVersion = errors.New("invalid version")

// Version is the three-component monotonic version used for files, codes and
// inspectors: (interface, quality, revision).
//
// Ordering is lexicographic: interface first, then quality, then revision.
type Version struct {
	Interface int
	Quality   int
	Revision  int
}

// NewVersion builds a Version, rejecting invalid components.
//
// Interface must be 1 or more; quality and revision must not be negative.
func NewVersion(iface, quality, revision int) (Version, error) {
	if iface < 1 {
		return Version{}, fmt.Errorf("%w: interface version %d < 1", ErrInvalidVersion, iface)
	}
	if quality < 0 || revision < 0 {
		return Version{}, fmt.Errorf(
			"%w: negative component in %d.%d.%d", ErrInvalidVersion, iface, quality, revision,
		)
	}
	return Version{Interface: iface, Quality: quality, Revision: revision}, nil
}

// ParseVersion reads a Version from its "I.Q.R" string form.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("%w: %q is not I.Q.R", ErrInvalidVersion, s)
	}
	comp := make([]int, 3)
	for nth, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q is not I.Q.R", ErrInvalidVersion, s)
		}
		comp[nth] = v
	}
	return NewVersion(comp[0], comp[1], comp[2])
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Interface, v.Quality, v.Revision)
}

// Cmp compares two Versions: negative when v < other, 0 when equal,
// positive when v > other.
func (v Version) Cmp(other Version) int {
	if d := v.Interface - other.Interface; d != 0 {
		return d
	}
	if d := v.Quality - other.Quality; d != 0 {
		return d
	}
	return v.Revision - other.Revision
}

func (v Version) Less(other Version) bool {
	return v.Cmp(other) < 0
}

func (v Version) Equal(other Version) bool {
	return v.Cmp(other) == 0
}

// IncInterface returns the next interface version. Quality and revision reset.
func (v Version) IncInterface() Version {
	return Version{Interface: v.Interface + 1}
}

// IncQuality returns the next quality version. Revision resets.
func (v Version) IncQuality() Version {
	return Version{Interface: v.Interface, Quality: v.Quality + 1}
}

// IncRevision returns the next revision version.
func (v Version) IncRevision() Version {
	return Version{Interface: v.Interface, Quality: v.Quality, Revision: v.Revision + 1}
}

// VersionBump selects which component a forced rebuild should increment.
type VersionBump int

const (
	BumpNone VersionBump = iota - 1
	BumpInterface
	BumpQuality
	BumpRevision
)

func (b VersionBump) String() string {
	switch b {
	case BumpInterface:
		return "interface"
	case BumpQuality:
		return "quality"
	case BumpRevision:
		return "revision"
	default:
		return "none"
	}
}

// AsVersionBump parses a forced-bump flag value: 0, 1 or 2.
func AsVersionBump(s string) (VersionBump, error) {
	switch s {
	case "0":
		return BumpInterface, nil
	case "1":
		return BumpQuality, nil
	case "2":
		return BumpRevision, nil
	default:
		return BumpNone, fmt.Errorf("'%s' is not a version bump (0, 1 or 2)", s)
	}
}

// Apply increments v by the selected component.
func (b VersionBump) Apply(v Version) Version {
	switch b {
	case BumpInterface:
		return v.IncInterface()
	case BumpQuality:
		return v.IncQuality()
	case BumpRevision:
		return v.IncRevision()
	default:
		return v
	}
}
