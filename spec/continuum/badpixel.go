package continuum

import (
	"log/slog"
	"math"
)

// FillBadPixels returns a copy of flux with masked pixels replaced by linear
// interpolation between the nearest good neighbors. Pixels before the first
// or after the last good pixel take the nearest good value; there is no
// extrapolation. When every pixel is masked the raw flux is returned with
// non-finite values floored to 1, after a logged warning.
func FillBadPixels(lam, flux []float64, bad []bool) []float64 {
	out := append([]float64(nil), flux...)
	if len(out) == 0 {
		return out
	}

	anyGood := false
	for i := range bad {
		if !bad[i] {
			anyGood = true
			break
		}
	}
	if !anyGood {
		slog.Warn("all pixels are masked, returning sanitized spectrum",
			"pixels", len(flux))
		for i, v := range out {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				out[i] = 1
			}
		}
		return out
	}

	n := len(flux)
	prev := make([]int, n)
	next := make([]int, n)
	last := -1
	for i := 0; i < n; i++ {
		if !bad[i] {
			last = i
		}
		prev[i] = last
	}
	last = -1
	for i := n - 1; i >= 0; i-- {
		if !bad[i] {
			last = i
		}
		next[i] = last
	}

	for i := 0; i < n; i++ {
		if !bad[i] {
			continue
		}
		lo, hi := prev[i], next[i]
		switch {
		case lo < 0:
			out[i] = flux[hi]
		case hi < 0:
			out[i] = flux[lo]
		default:
			t := (lam[i] - lam[lo]) / (lam[hi] - lam[lo])
			out[i] = flux[lo] + t*(flux[hi]-flux[lo])
		}
	}
	return out
}
