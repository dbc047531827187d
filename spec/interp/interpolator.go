package interp

import "fmt"

// Evaluator is the capability shared by both interpolation strategies.
type Evaluator interface {
	// Evaluate returns the interpolated spectrum at a mapped parameter
	// vector. Out-of-domain queries return the strategy's deterministic
	// fallback rather than failing.
	Evaluate(p []float64) []float64

	// Outside reports whether the mapped point lies outside the reliable
	// interpolation domain.
	Outside(p []float64) bool
}

// Interpolator is a spectral setup's interpolation engine: the strategy, the
// wavelength axis of the produced spectra, the raw-to-grid parameter mapper,
// and provenance.
type Interpolator struct {
	name     string
	lam      []float64
	mapper   Mapper
	parNames []string
	revision string
	software string
	eval     Evaluator

	dats closer
}

type closer interface{ Close() error }

// Name returns the spectral setup name.
func (it *Interpolator) Name() string { return it.name }

// Lam returns the wavelength axis of interpolated spectra.
func (it *Interpolator) Lam() []float64 { return it.lam }

// ParNames returns the fixed parameter-name ordering.
func (it *Interpolator) ParNames() []string { return it.parNames }

// Revision returns the template grid revision tag.
func (it *Interpolator) Revision() string { return it.revision }

// CreationSoftwareVersion returns the version of the software that produced
// the artifact.
func (it *Interpolator) CreationSoftwareVersion() string { return it.software }

// Eval returns the interpolated spectrum at a raw physical parameter vector,
// ordered as ParNames.
func (it *Interpolator) Eval(params []float64) ([]float64, error) {
	mapped, err := it.mapper.Forward(params)
	if err != nil {
		return nil, err
	}
	return it.eval.Evaluate(mapped), nil
}

// EvalNamed evaluates at a name-keyed parameter mapping, ordered through the
// stored parameter names.
func (it *Interpolator) EvalNamed(params map[string]float64) ([]float64, error) {
	ordered, err := it.orderParams(params)
	if err != nil {
		return nil, err
	}
	return it.Eval(ordered)
}

// OutsideFlag reports whether a raw physical parameter vector falls outside
// the interpolation grid. Callers use it to reject fits near grid edges
// before committing to them.
func (it *Interpolator) OutsideFlag(params []float64) (bool, error) {
	mapped, err := it.mapper.Forward(params)
	if err != nil {
		return false, err
	}
	return it.eval.Outside(mapped), nil
}

func (it *Interpolator) orderParams(params map[string]float64) ([]float64, error) {
	if len(params) != len(it.parNames) {
		return nil, fmt.Errorf("%w: got %d parameters, want %d", ErrDimensionMismatch, len(params), len(it.parNames))
	}
	out := make([]float64, len(it.parNames))
	for i, name := range it.parNames {
		v, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
		}
		out[i] = v
	}
	return out, nil
}

// Close releases the interpolator's mapped flux array. Only the owning Cache
// should call this.
func (it *Interpolator) Close() error {
	if it.dats == nil {
		return nil
	}
	return it.dats.Close()
}
