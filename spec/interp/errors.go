package interp

import "errors"

// Errors returned by interpolator construction and evaluation.
var (
	ErrUnrecognizedArtifact = errors.New("interp: artifact has neither triangulation nor regular-grid fields")
	ErrBadArtifact          = errors.New("interp: malformed interpolator artifact")
	ErrDimensionMismatch    = errors.New("interp: parameter vector dimension mismatch")
	ErrUnknownParameter     = errors.New("interp: unknown parameter name")
	ErrUnknownKind          = errors.New("interp: unknown mapper transform kind")
)
