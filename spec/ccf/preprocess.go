package ccf

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-specfit/spec/broaden"
	"github.com/cwbudde/algo-specfit/spec/continuum"
	"github.com/cwbudde/algo-specfit/spec/spectrum"
)

// DefaultMaxErr is the error-inflation threshold for observed data, in units
// of the median error.
const DefaultMaxErr = 10.0

// PreprocessTemplate prepares a model spectrum for cross-correlation:
// optional rotational broadening, continuum normalization, linear resampling
// in log-wavelength onto the configured uniform grid, and edge apodization.
func PreprocessTemplate(cfg *Config, lamModel, model []float64, vsini float64) ([]float64, error) {
	if len(lamModel) == 0 {
		return nil, ErrEmptyInput
	}
	if len(lamModel) != len(model) {
		return nil, fmt.Errorf("%w: lam=%d model=%d", ErrLengthMismatch, len(lamModel), len(model))
	}

	m := model
	if vsini > 0 {
		var err error
		m, err = broaden.Convolve(lamModel, model, vsini)
		if err != nil {
			return nil, fmt.Errorf("ccf: vsini convolution: %w", err)
		}
	}

	med := spectrum.Median(m)
	errScale := 1e-2 * med
	espec := make([]float64, len(m))
	for i, v := range m {
		espec[i] = math.Max(1e-5*v, errScale)
	}

	cont, err := continuum.Fit(lamModel, m, espec, cfg.SplineStep)
	if err != nil {
		return nil, err
	}
	contFloor := 1e-2 * spectrum.Median(cont)
	norm := make([]float64, len(m))
	for i := range norm {
		norm[i] = m[i] / math.Max(cont[i], contFloor)
	}

	logLam := make([]float64, len(lamModel))
	for i, l := range lamModel {
		logLam[i] = math.Log(l)
	}
	out := resampleLinear(logLam, norm, cfg.LogGrid())
	ApodizeInPlace(out)
	return out, nil
}

// PreprocessData prepares an observed spectrum in the same manner as the
// templates and propagates its inverse variance onto the uniform grid.
//
// Pixels whose error exceeds maxErr times the median error join the bad
// mask; masked pixels get inflated errors and interpolated flux purely to
// stabilize the continuum fit, and carry zero weight in the output. Grid
// points outside the native wavelength coverage stay at zero flux and zero
// weight. bad may be nil; maxErr <= 0 selects DefaultMaxErr.
func PreprocessData(cfg *Config, sp spectrum.Spectrum, bad []bool, maxErr float64) (flux, ivar []float64, err error) {
	if err = sp.Validate(); err != nil {
		return nil, nil, err
	}
	if sp.Err == nil {
		return nil, nil, fmt.Errorf("%w: observed spectrum requires an error vector", ErrEmptyInput)
	}
	if bad != nil && len(bad) != len(sp.Lam) {
		return nil, nil, fmt.Errorf("%w: mask=%d lam=%d", ErrLengthMismatch, len(bad), len(sp.Lam))
	}
	if maxErr <= 0 {
		maxErr = DefaultMaxErr
	}

	n := len(sp.Lam)
	mask := make([]bool, n)
	copy(mask, bad)

	medErr := spectrum.MedianFinite(sp.Err)
	espec := append([]float64(nil), sp.Err...)
	for i := range espec {
		if espec[i] > maxErr*medErr {
			mask[i] = true
		}
	}
	for i := range espec {
		if mask[i] {
			espec[i] = 1e9 * medErr
		}
	}

	// Filled flux feeds only the continuum fit, never the output.
	filled := continuum.FillBadPixels(sp.Lam, sp.Flux, mask)

	cont, err := continuum.Fit(sp.Lam, filled, espec, cfg.SplineStep)
	if err != nil {
		return nil, nil, err
	}

	medFlux := spectrum.Median(filled)
	if medFlux > 0 {
		floor := 1e-2 * medFlux
		for i := range cont {
			cont[i] = math.Max(cont[i], floor)
		}
	} else {
		for i := range cont {
			cont[i] = math.Max(cont[i], 1)
		}
	}

	normFlux := make([]float64, n)
	normIvar := make([]float64, n)
	for i := range normFlux {
		normFlux[i] = sp.Flux[i] / cont[i]
		if !mask[i] {
			normIvar[i] = cont[i] * cont[i] / (espec[i] * espec[i])
		}
		if mask[i] {
			normFlux[i] = 0
		}
	}

	logGrid := cfg.LogGrid()
	flux = make([]float64, cfg.NPoints)
	ivar = make([]float64, cfg.NPoints)
	for j, lg := range logGrid {
		target := math.Exp(lg)
		// Left bracketing pixel.
		idx := sort.SearchFloat64s(sp.Lam, target) - 1
		if idx < 0 || idx > n-2 {
			continue
		}
		lo, hi := idx, idx+1
		wHi := (target - sp.Lam[lo]) / (sp.Lam[hi] - sp.Lam[lo])
		wLo := 1 - wHi

		flux[j] = wLo*normFlux[lo] + wHi*normFlux[hi]

		ivLo, ivHi := normIvar[lo], normIvar[hi]
		if ivLo*ivHi == 0 {
			// Either bracketing pixel carries no weight: the combined
			// weight is zero, not a fault.
			continue
		}
		ivar[j] = ivLo * ivHi / (wLo*wLo*ivHi + wHi*wHi*ivLo)
	}

	ApodizeInPlace(flux)
	return flux, ivar, nil
}

// resampleLinear interpolates y(x) at the query points, clamping to the end
// values outside the sampled range. x must be strictly increasing.
func resampleLinear(x, y, query []float64) []float64 {
	out := make([]float64, len(query))
	for i, q := range query {
		switch {
		case q <= x[0]:
			out[i] = y[0]
		case q >= x[len(x)-1]:
			out[i] = y[len(y)-1]
		default:
			j := sort.SearchFloat64s(x, q)
			x0, x1 := x[j-1], x[j]
			t := (q - x0) / (x1 - x0)
			out[i] = y[j-1] + t*(y[j]-y[j-1])
		}
	}
	return out
}
