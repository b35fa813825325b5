// Package testutil provides shared assertion helpers for the lineopt test packages.
// It does not import sim so that tests inside package sim can use it too.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertAllNear checks every element of got against want within an absolute tolerance.
func AssertAllNear(t *testing.T, name string, want float64, got []float64, absTol float64) {
	t.Helper()
	for i, v := range got {
		if math.Abs(v-want) > absTol {
			t.Errorf("%s[%d]: got %v, want %v (tol %v)", name, i, v, want, absTol)
			return
		}
	}
}

// AssertProbabilities checks that every element lies in [0,1] and is not NaN.
func AssertProbabilities(t *testing.T, name string, got []float64) {
	t.Helper()
	for i, v := range got {
		if math.IsNaN(v) || v < 0 || v > 1 {
			t.Errorf("%s[%d] = %v, want a probability in [0,1]", name, i, v)
			return
		}
	}
}

// AssertNonNegative checks that every element is finite and >= 0.
func AssertNonNegative(t *testing.T, name string, got []float64) {
	t.Helper()
	for i, v := range got {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			t.Errorf("%s[%d] = %v, want a finite non-negative value", name, i, v)
			return
		}
	}
}

// AssertLen checks that every named array has length n.
func AssertLen(t *testing.T, n int, arrays map[string][]float64) {
	t.Helper()
	for name, a := range arrays {
		if len(a) != n {
			t.Errorf("%s: len = %d, want %d", name, len(a), n)
		}
	}
}
