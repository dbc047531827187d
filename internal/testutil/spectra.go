// Package testutil provides deterministic synthetic spectra and tolerance
// helpers shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// LinearLam returns n wavelengths spaced linearly over [lam0, lam1].
func LinearLam(lam0, lam1 float64, n int) []float64 {
	out := make([]float64, n)
	step := (lam1 - lam0) / float64(n-1)
	for i := range out {
		out[i] = lam0 + float64(i)*step
	}
	return out
}

// LogLam returns n wavelengths spaced logarithmically over [lam0, lam1].
func LogLam(lam0, lam1 float64, n int) []float64 {
	out := make([]float64, n)
	step := math.Log(lam1/lam0) / float64(n-1)
	for i := range out {
		out[i] = lam0 * math.Exp(float64(i)*step)
	}
	return out
}

// FlatSpectrum returns a constant-flux spectrum with uniform noise of the
// given amplitude, generated from a fixed seed for reproducibility.
func FlatSpectrum(level, noise float64, seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = level + (rng.Float64()*2-1)*noise
	}
	return out
}

// WithAbsorptionLine multiplies a Gaussian absorption line of the given
// center, width and depth into flux, in place, and returns flux.
func WithAbsorptionLine(lam, flux []float64, center, sigma, depth float64) []float64 {
	for i := range flux {
		d := (lam[i] - center) / sigma
		flux[i] *= 1 - depth*math.Exp(-0.5*d*d)
	}
	return flux
}

// ConstErr returns a constant per-pixel error vector.
func ConstErr(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	return ConstErr(1, n)
}
