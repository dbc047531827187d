// Package continuum estimates the smooth multiplicative baseline of a
// spectrum and repairs masked pixels ahead of the fit.
//
// The continuum model is the exponential of a natural cubic spline whose
// nodes are spaced geometrically in wavelength; the spline control values are
// fitted with a robust (soft-L1) damped least squares so that absorption and
// emission lines do not drag the baseline. The fitted continuum is strictly
// positive for any input.
package continuum
