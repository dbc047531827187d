package ccf

import "errors"

// Errors returned by CCF preparation.
var (
	ErrEmptyInput         = errors.New("ccf: empty input")
	ErrLengthMismatch     = errors.New("ccf: vector length mismatch")
	ErrInvalidRange       = errors.New("ccf: log-wavelength range must be increasing")
	ErrInvalidPoints      = errors.New("ccf: npoints must be > 1")
	ErrInvalidSplineStep  = errors.New("ccf: spline step must be positive")
	ErrInvalidContPts     = errors.New("ccf: max continuum points must be > 1")
	ErrUnsupportedSpacing = errors.New("ccf: wavelength axis is neither linear nor logarithmic")
	ErrEmptyGrid          = errors.New("ccf: template grid has no spectra")
)
