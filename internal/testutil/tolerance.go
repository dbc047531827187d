package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if any
// element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireAllPositive fails t if any element is not strictly positive.
func RequireAllPositive(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if !(v > 0) {
			t.Fatalf("index %d: non-positive value %v", i, v)
		}
	}
}

// RequireAllNaN fails t if any element is not NaN.
func RequireAllNaN(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if !math.IsNaN(v) {
			t.Fatalf("index %d: expected NaN, got %v", i, v)
		}
	}
}
