package ccf

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-specfit/spec/spectrum"
)

// Fraction of samples tapered on each edge.
const taperFraction = 0.15

// Apodize returns a copy of x with a raised-cosine taper applied over the
// first and last 15% of samples. The central samples pass unchanged.
func Apodize(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	out := make([]float64, len(x))
	vecmath.MulBlock(out, x, taper(len(x)))
	return out
}

// ApodizeInPlace applies the edge taper to x directly.
func ApodizeInPlace(x []float64) {
	if len(x) == 0 {
		return
	}
	vecmath.MulBlockInPlace(x, taper(len(x)))
}

func taper(n int) []float64 {
	w := make([]float64, n)
	edge := taperFraction * float64(n)
	for i := range w {
		w[i] = 1
		if fi := float64(i); fi < edge {
			w[i] = 0.5 * (1 - math.Cos(fi/edge*math.Pi))
		}
		if tail := float64(n-1-i); tail < edge {
			w[i] = 0.5 * (1 - math.Cos(tail/edge*math.Pi))
		}
	}
	return w
}

// Pad extends a spectrum symmetrically with zeros up to the next power-of-two
// length and extends the wavelength axis consistently with its detected
// spacing. Inputs whose axis is neither linearly nor logarithmically sampled
// are rejected with ErrUnsupportedSpacing: the Fourier-domain assumptions
// downstream would silently produce wrong results on such grids.
func Pad(lam, x []float64) ([]float64, []float64, error) {
	n := len(x)
	if n == 0 || len(lam) != n {
		if n == 0 {
			return nil, nil, ErrEmptyInput
		}
		return nil, nil, ErrLengthMismatch
	}

	total := nextPowerOfTwo(n)
	left := (total - n) / 2
	right := total - n - left

	x2 := make([]float64, total)
	copy(x2[left:], x)

	lam2 := make([]float64, total)
	switch spectrum.DetectSpacing(lam) {
	case spectrum.SpacingLinear:
		d := lam[1] - lam[0]
		for i := 0; i < left; i++ {
			lam2[i] = lam[0] - float64(left-i)*d
		}
		copy(lam2[left:], lam)
		for i := 0; i < right; i++ {
			lam2[left+n+i] = lam[n-1] + float64(i+1)*d
		}
	case spectrum.SpacingLog:
		r := lam[1] / lam[0]
		for i := 0; i < left; i++ {
			lam2[i] = lam[0] * math.Pow(r, -float64(left-i))
		}
		copy(lam2[left:], lam)
		for i := 0; i < right; i++ {
			lam2[left+n+i] = lam[n-1] * math.Pow(r, float64(i+1))
		}
	default:
		return nil, nil, ErrUnsupportedSpacing
	}
	return lam2, x2, nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
