package cmp_test

import (
	"testing"

	"github.com/opensdc/dbflow/pkg/utils/cmp"
)

func TestMapEq(t *testing.T) {
	t.Run("same maps are equal", func(t *testing.T) {
		a := map[string]int{"a": 1, "b": 2}
		b := map[string]int{"b": 2, "a": 1}
		if !cmp.MapEq(a, b) {
			t.Error("two maps are not equal, unexpectedly.")
		}
	})
	t.Run("maps with different values are not equal", func(t *testing.T) {
		a := map[string]int{"a": 1, "b": 2}
		b := map[string]int{"a": 1, "b": 3}
		if cmp.MapEq(a, b) {
			t.Error("two maps are equal, unexpectedly.")
		}
	})
	t.Run("maps with different keys are not equal", func(t *testing.T) {
		a := map[string]int{"a": 1, "b": 2}
		b := map[string]int{"a": 1, "c": 2}
		if cmp.MapEq(a, b) {
			t.Error("two maps are equal, unexpectedly.")
		}
	})
	t.Run("MapEqWith compares values in some rule", func(t *testing.T) {
		a := map[string]string{"a": "foo", "b": "quux"}
		b := map[string]int{"a": 3, "b": 4}
		if !cmp.MapEqWith(a, b, func(s string, n int) bool { return len(s) == n }) {
			t.Error("two maps are not equal, unexpectedly.")
		}
	})
}
