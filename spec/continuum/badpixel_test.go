package continuum

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-specfit/internal/testutil"
)

func TestFillBadPixelsNoMask(t *testing.T) {
	lam := testutil.LinearLam(4000, 4100, 50)
	flux := testutil.FlatSpectrum(1, 0.1, 11, 50)
	bad := make([]bool, 50)

	got := FillBadPixels(lam, flux, bad)
	for i := range flux {
		if got[i] != flux[i] {
			t.Fatalf("index %d changed: got %v, want %v", i, got[i], flux[i])
		}
	}
}

func TestFillBadPixelsInterior(t *testing.T) {
	lam := []float64{1, 2, 3, 4, 5}
	flux := []float64{10, 0, 0, 0, 30}
	bad := []bool{false, true, true, true, false}

	got := FillBadPixels(lam, flux, bad)
	want := []float64{10, 15, 20, 25, 30}
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
}

func TestFillBadPixelsEdges(t *testing.T) {
	lam := []float64{1, 2, 3, 4, 5}
	flux := []float64{99, 99, 7, 99, 99}
	bad := []bool{true, true, false, true, true}

	got := FillBadPixels(lam, flux, bad)
	want := []float64{7, 7, 7, 7, 7}
	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}

func TestFillBadPixelsAllMasked(t *testing.T) {
	lam := []float64{1, 2, 3}
	flux := []float64{2, math.NaN(), math.Inf(1)}
	bad := []bool{true, true, true}

	got := FillBadPixels(lam, flux, bad)
	want := []float64{2, 1, 1}
	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}
