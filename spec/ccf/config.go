package ccf

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-specfit/spec/spectrum"
)

// Defaults for optional configuration knobs.
const (
	DefaultSplineStep = 1000.0
	DefaultMaxContPts = 20

	speedOfLightKMS = 3e5
)

// Config holds the immutable cross-correlation preparation settings.
//
// LogLam0 and LogLam1 are natural logarithms of the wavelength bounds of the
// output grid, NPoints its sample count. SplineStep (km/s) controls the
// smoothness of the continuum fit and is floored so that no more than
// MaxContPts spline nodes fit into the wavelength range.
type Config struct {
	LogLam0    float64 `json:"logl0"`
	LogLam1    float64 `json:"logl1"`
	NPoints    int     `json:"npoints"`
	SplineStep float64 `json:"splinestep"`
	MaxContPts int     `json:"maxcontpts"`
}

// ConfigOption configures optional Config fields.
type ConfigOption func(*Config)

// WithSplineStep sets the requested continuum smoothness in km/s. The value
// is still subject to the MaxContPts floor.
func WithSplineStep(v float64) ConfigOption {
	return func(c *Config) { c.SplineStep = v }
}

// WithMaxContPts sets the maximum number of continuum spline nodes.
func WithMaxContPts(n int) ConfigOption {
	return func(c *Config) { c.MaxContPts = n }
}

// NewConfig validates the bounds and returns an immutable configuration with
// the spline-step floor applied.
func NewConfig(logl0, logl1 float64, npoints int, opts ...ConfigOption) (*Config, error) {
	c := &Config{
		LogLam0:    logl0,
		LogLam1:    logl1,
		NPoints:    npoints,
		SplineStep: DefaultSplineStep,
		MaxContPts: DefaultMaxContPts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if !(logl1 > logl0) {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, logl0, logl1)
	}
	if npoints <= 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPoints, npoints)
	}
	if c.SplineStep <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSplineStep, c.SplineStep)
	}
	if c.MaxContPts <= 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidContPts, c.MaxContPts)
	}

	// Floor the step so at most MaxContPts nodes span the range.
	floor := speedOfLightKMS * (math.Exp((logl1-logl0)/float64(c.MaxContPts)) - 1)
	if c.SplineStep < floor {
		c.SplineStep = floor
	}
	return c, nil
}

// LogGrid returns the uniform log-wavelength output grid.
func (c *Config) LogGrid() []float64 {
	return spectrum.LogGrid(c.LogLam0, c.LogLam1, c.NPoints)
}
