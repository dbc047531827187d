package continuum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-specfit/internal/testutil"
)

func TestFitFlatSpectrum(t *testing.T) {
	const n = 2000
	lam := testutil.LinearLam(4000, 5000, n)
	flux := testutil.FlatSpectrum(1.0, 0.005, 7, n)
	errv := testutil.ConstErr(0.01, n)

	cont, err := Fit(lam, flux, errv, 1000)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(cont) != n {
		t.Fatalf("len = %d, want %d", len(cont), n)
	}
	testutil.RequireSliceNearlyEqual(t, cont, testutil.Ones(n), 0.01)
}

func TestFitStaysPositiveWithLines(t *testing.T) {
	const n = 1500
	lam := testutil.LinearLam(4000, 5000, n)
	flux := testutil.FlatSpectrum(2.0, 0.01, 3, n)
	testutil.WithAbsorptionLine(lam, flux, 4300, 2, 0.9)
	testutil.WithAbsorptionLine(lam, flux, 4700, 3, 0.8)
	errv := testutil.ConstErr(0.02, n)

	cont, err := Fit(lam, flux, errv, 2000)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	testutil.RequireAllPositive(t, cont)

	// The robust loss keeps the baseline near the line-free level.
	mid := cont[n/2]
	if math.Abs(mid-2) > 0.1 {
		t.Fatalf("continuum at center = %v, want about 2", mid)
	}
}

func TestFitSlopedContinuum(t *testing.T) {
	const n = 1200
	lam := testutil.LinearLam(4000, 5000, n)
	flux := make([]float64, n)
	for i := range flux {
		flux[i] = 1 + 0.5*(lam[i]-4000)/1000
	}
	errv := testutil.ConstErr(0.01, n)

	cont, err := Fit(lam, flux, errv, 1000)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for i := 50; i < n-50; i++ {
		if math.Abs(cont[i]-flux[i]) > 0.02 {
			t.Fatalf("index %d: continuum %v, flux %v", i, cont[i], flux[i])
		}
	}
}

func TestFitNonPositiveMedian(t *testing.T) {
	const n = 600
	lam := testutil.LinearLam(5000, 5100, n)
	flux := testutil.ConstErr(-1, n)
	errv := testutil.ConstErr(0.1, n)

	cont, err := Fit(lam, flux, errv, 1000)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	testutil.RequireAllPositive(t, cont)
}

func TestFitRejectsBadInput(t *testing.T) {
	if _, err := Fit(nil, nil, nil, 1000); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("empty input not reported: %v", err)
	}
	lam := []float64{1, 2, 3}
	if _, err := Fit(lam, []float64{1, 1}, []float64{1, 1, 1}, 1000); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("length mismatch not reported: %v", err)
	}
	if _, err := Fit(lam, []float64{1, 1, 1}, []float64{1, 1, 1}, 0); !errors.Is(err, ErrSplineStep) {
		t.Fatalf("bad spline step not reported: %v", err)
	}
}
