// Package spectrum provides the basic spectrum record plus small numeric
// helpers shared by the continuum fitter and the cross-correlation
// preparation pipeline: wavelength-spacing detection, numpy-compatible
// medians, and uniform log-wavelength grid construction. All wavelength
// vectors are expected in ascending order.
package spectrum
