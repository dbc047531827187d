package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Errors returned by spectrum validation.
var (
	ErrEmpty          = errors.New("spectrum: empty input")
	ErrLengthMismatch = errors.New("spectrum: vector length mismatch")
	ErrNotAscending   = errors.New("spectrum: wavelength vector must be strictly increasing")
)

// Spacing classifies the sampling pattern of a wavelength axis.
type Spacing int

const (
	// SpacingIrregular marks an axis that is neither linearly nor
	// logarithmically sampled within tolerance.
	SpacingIrregular Spacing = iota

	// SpacingLinear marks constant wavelength steps.
	SpacingLinear

	// SpacingLog marks constant wavelength ratios.
	SpacingLog
)

// String returns a human-readable spacing name.
func (s Spacing) String() string {
	switch s {
	case SpacingLinear:
		return "linear"
	case SpacingLog:
		return "logarithmic"
	default:
		return "irregular"
	}
}

// Spectrum is a single observed or model spectrum: wavelength, flux and
// per-pixel error, all of equal length and ordered by wavelength.
type Spectrum struct {
	Lam  []float64
	Flux []float64
	Err  []float64
}

// Validate checks lengths and wavelength ordering.
func (s Spectrum) Validate() error {
	if len(s.Lam) == 0 {
		return ErrEmpty
	}
	if len(s.Flux) != len(s.Lam) || (s.Err != nil && len(s.Err) != len(s.Lam)) {
		return fmt.Errorf("%w: lam=%d flux=%d err=%d",
			ErrLengthMismatch, len(s.Lam), len(s.Flux), len(s.Err))
	}
	for i := 1; i < len(s.Lam); i++ {
		if !(s.Lam[i] > s.Lam[i-1]) {
			return fmt.Errorf("%w: at index %d", ErrNotAscending, i)
		}
	}
	return nil
}

// Tolerances follow the usual allclose convention.
const (
	spacingRelTol = 1e-5
	spacingAbsTol = 1e-8
)

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= spacingAbsTol+spacingRelTol*math.Abs(b)
}

// DetectSpacing classifies the wavelength axis as linear, logarithmic or
// irregular. Axes shorter than two samples are irregular.
func DetectSpacing(lam []float64) Spacing {
	if len(lam) < 2 {
		return SpacingIrregular
	}

	linear := true
	d0 := lam[1] - lam[0]
	for i := 1; i < len(lam); i++ {
		if !closeTo(lam[i]-lam[i-1], d0) {
			linear = false
			break
		}
	}
	if linear {
		return SpacingLinear
	}

	if lam[0] <= 0 {
		return SpacingIrregular
	}
	r0 := math.Log(lam[1] / lam[0])
	for i := 1; i < len(lam); i++ {
		if lam[i] <= 0 || !closeTo(math.Log(lam[i]/lam[i-1]), r0) {
			return SpacingIrregular
		}
	}
	return SpacingLog
}

// Median returns the median of x, averaging the two middle order statistics
// for even lengths. Returns NaN for empty input.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	tmp := append([]float64(nil), x...)
	sort.Float64s(tmp)
	mid := len(tmp) / 2
	if len(tmp)%2 == 1 {
		return tmp[mid]
	}
	return 0.5 * (tmp[mid-1] + tmp[mid])
}

// MedianFinite returns the median of the finite elements of x, ignoring NaN
// and infinities. Returns NaN if no finite element exists.
func MedianFinite(x []float64) float64 {
	tmp := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			tmp = append(tmp, v)
		}
	}
	return Median(tmp)
}

// LogGrid returns n log-wavelength samples spaced uniformly over
// [logl0, logl1], endpoints included.
func LogGrid(logl0, logl1 float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = logl0
		return out
	}
	step := (logl1 - logl0) / float64(n-1)
	for i := range out {
		out[i] = logl0 + float64(i)*step
	}
	out[n-1] = logl1
	return out
}
