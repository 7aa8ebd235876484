package testutil

import (
	"testing"
)

// RequireInt16Near fails t if got and want differ by more than tol.
func RequireInt16Near(t *testing.T, name string, got, want int16, tol int32) {
	t.Helper()
	diff := int32(got) - int32(want)
	if diff < 0 {
		diff = -diff
	}
	if diff > tol {
		t.Fatalf("%s: got %d, want %d (diff %d > tol %d)", name, got, want, diff, tol)
	}
}

// RequireAllZero fails t if any sample is non-zero.
func RequireAllZero(t *testing.T, name string, data []int16) {
	t.Helper()
	for i, v := range data {
		if v != 0 {
			t.Fatalf("%s: index %d is %d, want 0", name, i, v)
		}
	}
}

// MaxAbsDiff returns the maximum absolute difference between two Q15
// slices over the shorter length.
func MaxAbsDiff(a, b []int16) int32 {
	n := min(len(a), len(b))
	var maxDiff int32
	for i := range n {
		d := int32(a[i]) - int32(b[i])
		if d < 0 {
			d = -d
		}
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}

// Float64s converts Q15 samples to real values.
func Float64s(x []int16) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v) / 32768
	}
	return out
}
