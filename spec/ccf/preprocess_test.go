package ccf

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/cwbudde/algo-specfit/internal/testutil"
	"github.com/cwbudde/algo-specfit/spec/spectrum"
)

func testConfig(t *testing.T, npoints int) *Config {
	t.Helper()
	cfg, err := NewConfig(math.Log(4000), math.Log(5000), npoints)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

func TestPreprocessTemplateFlat(t *testing.T) {
	cfg := testConfig(t, 1024)
	lam := testutil.LinearLam(3900, 5100, 3000)
	model := testutil.FlatSpectrum(5, 0.01, 13, 3000)

	out, err := PreprocessTemplate(cfg, lam, model, 0)
	if err != nil {
		t.Fatalf("PreprocessTemplate: %v", err)
	}
	if len(out) != cfg.NPoints {
		t.Fatalf("length %d, want %d", len(out), cfg.NPoints)
	}
	testutil.RequireFinite(t, out)

	// A flat spectrum divided by its own continuum is one; the taper only
	// touches the outer 15% on each side.
	edge := int(taperFraction * float64(len(out)))
	for i := edge; i < len(out)-edge; i++ {
		if math.Abs(out[i]-1) > 0.02 {
			t.Fatalf("normalized flux %v at %d, want ~1", out[i], i)
		}
	}
}

func TestPreprocessTemplateBroadening(t *testing.T) {
	cfg := testConfig(t, 1024)
	lam := testutil.LogLam(3900, 5100, 4000)
	model := testutil.WithAbsorptionLine(lam, testutil.ConstErr(10, 4000), 4500, 1.0, 0.9)

	sharp, err := PreprocessTemplate(cfg, lam, model, 0)
	if err != nil {
		t.Fatalf("vsini=0: %v", err)
	}
	broad, err := PreprocessTemplate(cfg, lam, model, 300)
	if err != nil {
		t.Fatalf("vsini=300: %v", err)
	}

	minOf := func(x []float64) float64 {
		m := x[len(x)/2]
		for _, v := range x[len(x)/4 : 3*len(x)/4] {
			m = math.Min(m, v)
		}
		return m
	}
	if minOf(broad) <= minOf(sharp) {
		t.Fatalf("broadened core %v not shallower than sharp %v", minOf(broad), minOf(sharp))
	}
}

func TestPreprocessTemplateRejectsBadInput(t *testing.T) {
	cfg := testConfig(t, 256)
	if _, err := PreprocessTemplate(cfg, nil, nil, 0); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("empty: got %v, want ErrEmptyInput", err)
	}
	lam := testutil.LinearLam(4000, 5000, 100)
	if _, err := PreprocessTemplate(cfg, lam, lam[:50], 0); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("mismatch: got %v, want ErrLengthMismatch", err)
	}
}

func TestPreprocessDataFlat(t *testing.T) {
	cfg := testConfig(t, 512)
	n := 1500
	sp := spectrum.Spectrum{
		Lam:  testutil.LinearLam(3900, 5100, n),
		Flux: testutil.FlatSpectrum(2, 0.01, 21, n),
		Err:  testutil.ConstErr(0.02, n),
	}

	flux, ivar, err := PreprocessData(cfg, sp, nil, 0)
	if err != nil {
		t.Fatalf("PreprocessData: %v", err)
	}
	if len(flux) != cfg.NPoints || len(ivar) != cfg.NPoints {
		t.Fatalf("lengths %d/%d, want %d", len(flux), len(ivar), cfg.NPoints)
	}
	testutil.RequireFinite(t, flux)
	testutil.RequireFinite(t, ivar)

	edge := int(taperFraction * float64(len(flux)))
	for i := edge; i < len(flux)-edge; i++ {
		if math.Abs(flux[i]-1) > 0.05 {
			t.Fatalf("normalized flux %v at %d, want ~1", flux[i], i)
		}
		if ivar[i] <= 0 {
			t.Fatalf("zero weight at covered grid point %d", i)
		}
	}
}

func TestPreprocessDataOutsideCoverage(t *testing.T) {
	cfg := testConfig(t, 512)
	n := 600
	sp := spectrum.Spectrum{
		Lam:  testutil.LinearLam(4400, 4600, n),
		Flux: testutil.FlatSpectrum(3, 0.02, 5, n),
		Err:  testutil.ConstErr(0.03, n),
	}

	flux, ivar, err := PreprocessData(cfg, sp, nil, 0)
	if err != nil {
		t.Fatalf("PreprocessData: %v", err)
	}

	covered := 0
	for j, lg := range cfg.LogGrid() {
		target := math.Exp(lg)
		if target < 4400 || target > 4600 {
			if flux[j] != 0 || ivar[j] != 0 {
				t.Fatalf("grid point %d at %.1f outside coverage has flux=%v ivar=%v",
					j, target, flux[j], ivar[j])
			}
			continue
		}
		if ivar[j] > 0 {
			covered++
		}
	}
	if covered == 0 {
		t.Fatal("no grid point carries weight inside the covered range")
	}
}

func TestPreprocessDataMaskedPixelsCarryNoWeight(t *testing.T) {
	cfg := testConfig(t, 1024)
	n := 1000
	sp := spectrum.Spectrum{
		Lam:  testutil.LinearLam(3950, 5050, n),
		Flux: testutil.FlatSpectrum(2, 0.01, 3, n),
		Err:  testutil.ConstErr(0.02, n),
	}
	bad := make([]bool, n)
	bad[500] = true
	// A wild error auto-masks its pixel the same way.
	sp.Err[700] = 5

	flux, ivar, err := PreprocessData(cfg, sp, bad, 0)
	if err != nil {
		t.Fatalf("PreprocessData: %v", err)
	}
	testutil.RequireFinite(t, flux)

	hit := 0
	for j, lg := range cfg.LogGrid() {
		idx := sort.SearchFloat64s(sp.Lam, math.Exp(lg)) - 1
		if idx < 0 || idx > n-2 {
			continue
		}
		masked := idx == 499 || idx == 500 || idx == 699 || idx == 700
		if masked {
			hit++
			if ivar[j] != 0 {
				t.Fatalf("grid point %d bracketed by masked pixel has ivar %v", j, ivar[j])
			}
		} else if ivar[j] == 0 {
			t.Fatalf("clean grid point %d lost its weight", j)
		}
	}
	if hit == 0 {
		t.Fatal("no grid point bracketed a masked pixel")
	}
}

func TestPreprocessDataRequiresErrors(t *testing.T) {
	cfg := testConfig(t, 256)
	sp := spectrum.Spectrum{
		Lam:  testutil.LinearLam(4000, 5000, 100),
		Flux: testutil.Ones(100),
	}
	if _, _, err := PreprocessData(cfg, sp, nil, 0); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("got %v, want ErrEmptyInput", err)
	}

	sp.Err = testutil.ConstErr(0.1, 100)
	if _, _, err := PreprocessData(cfg, sp, make([]bool, 7), 0); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("got %v, want ErrLengthMismatch", err)
	}
}
