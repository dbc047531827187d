package interp

import (
	"fmt"
	"math"
)

// TransformKind selects the per-dimension mapping between raw physical
// parameter units and the normalized space the interpolator is built over.
type TransformKind string

const (
	// KindLinear applies only the affine scale/offset.
	KindLinear TransformKind = "linear"

	// KindLog10 takes the decimal logarithm before the affine part.
	KindLog10 TransformKind = "log10"
)

// Transform is one dimension of a Mapper: x = (f(p) - Offset) / Scale,
// with f identity or log10 depending on Kind. A zero Scale means 1.
type Transform struct {
	Kind   TransformKind `json:"kind"`
	Scale  float64       `json:"scale"`
	Offset float64       `json:"offset"`
}

func (t Transform) scale() float64 {
	if t.Scale == 0 {
		return 1
	}
	return t.Scale
}

// Mapper is the invertible per-dimension transform carried by every
// interpolator artifact.
type Mapper struct {
	Dims []Transform `json:"dims"`
}

// Forward maps raw physical parameters into interpolation space.
func (m Mapper) Forward(p []float64) ([]float64, error) {
	if len(p) != len(m.Dims) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(p), len(m.Dims))
	}
	out := make([]float64, len(p))
	for i, t := range m.Dims {
		v := p[i]
		switch t.Kind {
		case KindLinear, "":
		case KindLog10:
			v = math.Log10(v)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
		}
		out[i] = (v - t.Offset) / t.scale()
	}
	return out, nil
}

// Inverse maps interpolation-space coordinates back to raw parameters.
func (m Mapper) Inverse(x []float64) ([]float64, error) {
	if len(x) != len(m.Dims) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(x), len(m.Dims))
	}
	out := make([]float64, len(x))
	for i, t := range m.Dims {
		v := x[i]*t.scale() + t.Offset
		switch t.Kind {
		case KindLinear, "":
		case KindLog10:
			v = math.Pow(10, v)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
		}
		out[i] = v
	}
	return out, nil
}

// Identity returns a linear pass-through mapper of the given dimension.
func Identity(ndim int) Mapper {
	dims := make([]Transform, ndim)
	for i := range dims {
		dims[i] = Transform{Kind: KindLinear, Scale: 1}
	}
	return Mapper{Dims: dims}
}
