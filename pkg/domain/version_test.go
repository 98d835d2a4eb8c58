package domain_test

import (
	"errors"
	"testing"

	"github.com/opensdc/dbflow/pkg/domain"
)

func TestVersion_ordering(t *testing.T) {
	t.Run("exactly one of <, =, > holds for any pair", func(t *testing.T) {
		versions := []domain.Version{
			{Interface: 1, Quality: 0, Revision: 0},
			{Interface: 1, Quality: 0, Revision: 1},
			{Interface: 1, Quality: 1, Revision: 0},
			{Interface: 1, Quality: 2, Revision: 5},
			{Interface: 2, Quality: 0, Revision: 0},
			{Interface: 3, Quality: 1, Revision: 1},
		}
		for _, a := range versions {
			for _, b := range versions {
				holds := 0
				if a.Less(b) {
					holds += 1
				}
				if b.Less(a) {
					holds += 1
				}
				if a.Equal(b) {
					holds += 1
				}
				if holds != 1 {
					t.Errorf("ordering of %s and %s is not total (%d relations hold)", a, b, holds)
				}
			}
		}
	})

	t.Run("interface dominates quality, quality dominates revision", func(t *testing.T) {
		if !(domain.Version{Interface: 1, Quality: 9, Revision: 9}).Less(domain.Version{Interface: 2}) {
			t.Error("1.9.9 should be less than 2.0.0")
		}
		if !(domain.Version{Interface: 1, Quality: 0, Revision: 9}).Less(domain.Version{Interface: 1, Quality: 1}) {
			t.Error("1.0.9 should be less than 1.1.0")
		}
	})
}

func TestVersion_increments(t *testing.T) {
	v := domain.Version{Interface: 2, Quality: 3, Revision: 4}

	t.Run("IncInterface resets quality and revision", func(t *testing.T) {
		got := v.IncInterface()
		want := domain.Version{Interface: 3, Quality: 0, Revision: 0}
		if !got.Equal(want) {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("IncQuality resets revision", func(t *testing.T) {
		got := v.IncQuality()
		want := domain.Version{Interface: 2, Quality: 4, Revision: 0}
		if !got.Equal(want) {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("IncRevision keeps the rest", func(t *testing.T) {
		got := v.IncRevision()
		want := domain.Version{Interface: 2, Quality: 3, Revision: 5}
		if !got.Equal(want) {
			t.Errorf("got %s, want %s", got, want)
		}
	})
}

func TestVersion_parse(t *testing.T) {
	t.Run("round-trips its string form", func(t *testing.T) {
		for _, v := range []domain.Version{
			{Interface: 1}, {Interface: 1, Quality: 2, Revision: 3}, {Interface: 10, Quality: 0, Revision: 7},
		} {
			got, err := domain.ParseVersion(v.String())
			if err != nil {
				t.Fatalf("parse %q: %v", v.String(), err)
			}
			if !got.Equal(v) {
				t.Errorf("got %s, want %s", got, v)
			}
		}
	})

	t.Run("rejects malformed strings", func(t *testing.T) {
		for _, s := range []string{"", "1", "1.2", "1.2.3.4", "a.b.c", "1.2.x"} {
			if _, err := domain.ParseVersion(s); err == nil {
				t.Errorf("parse %q: expected error", s)
			}
		}
	})

	t.Run("rejects interface version below 1", func(t *testing.T) {
		if _, err := domain.ParseVersion("0.1.2"); !errors.Is(err, domain.ErrInvalidVersion) {
			t.Errorf("expected ErrInvalidVersion, got %v", err)
		}
	})
}

func TestVersionBump(t *testing.T) {
	base := domain.Version{Interface: 1, Quality: 2, Revision: 3}

	for name, testcase := range map[string]struct {
		flag string
		want domain.Version
	}{
		"0 bumps interface": {flag: "0", want: domain.Version{Interface: 2}},
		"1 bumps quality":   {flag: "1", want: domain.Version{Interface: 1, Quality: 3}},
		"2 bumps revision":  {flag: "2", want: domain.Version{Interface: 1, Quality: 2, Revision: 4}},
	} {
		t.Run(name, func(t *testing.T) {
			bump, err := domain.AsVersionBump(testcase.flag)
			if err != nil {
				t.Fatal(err)
			}
			if got := bump.Apply(base); !got.Equal(testcase.want) {
				t.Errorf("got %s, want %s", got, testcase.want)
			}
		})
	}

	t.Run("other values are rejected", func(t *testing.T) {
		if _, err := domain.AsVersionBump("3"); err == nil {
			t.Error("expected error")
		}
	})
}
