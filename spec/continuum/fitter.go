package continuum

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-specfit/spec/spectrum"
)

// Speed of light in km/s, in the convention the spline-step invariant uses.
const speedOfLightKMS = 3e5

// Errors returned by the continuum fitter.
var (
	ErrEmptyInput     = errors.New("continuum: empty input")
	ErrLengthMismatch = errors.New("continuum: vector length mismatch")
	ErrSplineStep     = errors.New("continuum: spline step must be positive")
)

// Fit limits for the robust least squares.
const (
	maxIterations = 50
	clipExponent  = 100
	initialDamp   = 1e-3
	maxDamp       = 1e8
)

// Fit determines the continuum of a spectrum by fitting the exponential of a
// node-based spline in log-wavelength space.
//
// Nodes are placed geometrically with wavelength ratio 1+splineStep/c, the
// spline control values are seeded from per-node binned medians of the flux,
// and refined by a soft-L1 damped least squares against (model-flux)/errv.
// The returned continuum is aligned with lam and strictly positive.
func Fit(lam, flux, errv []float64, splineStep float64) ([]float64, error) {
	n := len(lam)
	if n == 0 {
		return nil, ErrEmptyInput
	}
	if len(flux) != n || len(errv) != n {
		return nil, fmt.Errorf("%w: lam=%d flux=%d errv=%d", ErrLengthMismatch, n, len(flux), len(errv))
	}
	if splineStep <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrSplineStep, splineStep)
	}

	lamMin, lamMax := lam[0], lam[n-1]
	step := math.Log1p(splineStep / speedOfLightKMS)
	nNodes := int(math.Ceil(math.Log(lamMax/lamMin) / step))
	if nNodes < 2 {
		nNodes = 2
	}

	logNodes := make([]float64, nNodes)
	logMin := math.Log(lamMin)
	for i := range logNodes {
		logNodes[i] = logMin + float64(i)*step
	}

	medFlux := spectrum.Median(flux)
	if medFlux <= 0 {
		slog.Warn("spectrum median is non-positive, using fallback continuum scale",
			"median", medFlux)
		medFlux = math.Abs(medFlux)
		if medFlux == 0 {
			medFlux = 1
		}
	}

	p0 := seedControlPoints(lam, flux, lamMin, step, nNodes, medFlux)

	basis, err := splineBasis(logNodes, lam)
	if err != nil {
		return nil, err
	}

	p := solveRobust(basis, flux, errv, p0)

	cont := make([]float64, n)
	for i := range cont {
		v := 0.0
		for j := 0; j < nNodes; j++ {
			v += basis.At(i, j) * p[j]
		}
		cont[i] = math.Exp(clip(v))
	}
	return cont, nil
}

// seedControlPoints bins the flux median into each node interval and takes
// logs, flooring the bin values so the seed stays finite.
func seedControlPoints(lam, flux []float64, lamMin, step float64, nNodes int, medFlux float64) []float64 {
	bins := make([][]float64, nNodes)
	for i := range lam {
		// Node edges sit at half-steps around each node.
		idx := int(math.Floor(math.Log(lam[i]/lamMin)/step + 0.5))
		if idx < 0 || idx >= nNodes {
			continue
		}
		bins[idx] = append(bins[idx], flux[i])
	}

	logMed := math.Log(medFlux)
	floor := 1e-3 * medFlux
	p0 := make([]float64, nNodes)
	for j := range p0 {
		if len(bins[j]) == 0 {
			p0[j] = logMed
			continue
		}
		v := math.Log(math.Max(spectrum.Median(bins[j]), floor))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = logMed
		}
		p0[j] = v
	}
	return p0
}

// splineBasis evaluates the natural cubic interpolation basis at every pixel:
// column j holds the spline through unit control value j. The spline model is
// linear in the control values, which makes the fit Jacobian exact.
func splineBasis(logNodes []float64, lam []float64) (*mat.Dense, error) {
	nNodes := len(logNodes)
	basis := mat.NewDense(len(lam), nNodes, nil)

	// Pixels past the last node evaluate at the node-range edge rather than
	// extrapolating; the overhang is at most half a node step.
	logLam := make([]float64, len(lam))
	for i, l := range lam {
		x := math.Log(l)
		if x < logNodes[0] {
			x = logNodes[0]
		}
		if x > logNodes[nNodes-1] {
			x = logNodes[nNodes-1]
		}
		logLam[i] = x
	}

	unit := make([]float64, nNodes)
	var nc interp.NaturalCubic
	for j := 0; j < nNodes; j++ {
		for k := range unit {
			unit[k] = 0
		}
		unit[j] = 1
		if err := nc.Fit(logNodes, unit); err != nil {
			return nil, fmt.Errorf("continuum: spline basis: %w", err)
		}
		for i, x := range logLam {
			basis.Set(i, j, nc.Predict(x))
		}
	}
	return basis, nil
}

// solveRobust runs a soft-L1 iteratively reweighted Levenberg-Marquardt over
// the spline control values. The model is exp(clip(B*p)), so the Jacobian is
// diag(model/errv)*B with clipped pixels contributing zero derivative.
func solveRobust(basis *mat.Dense, flux, errv, p0 []float64) []float64 {
	npix, nNodes := basis.Dims()
	p := append([]float64(nil), p0...)

	model := make([]float64, npix)
	resid := make([]float64, npix)
	clipped := make([]bool, npix)

	evaluate := func(p []float64) float64 {
		cost := 0.0
		for i := 0; i < npix; i++ {
			v := 0.0
			for j := 0; j < nNodes; j++ {
				v += basis.At(i, j) * p[j]
			}
			clipped[i] = v < -clipExponent || v > clipExponent
			model[i] = math.Exp(clip(v))
			r := (model[i] - flux[i]) / errv[i]
			resid[i] = r
			cost += 2 * (math.Sqrt(1+r*r) - 1)
		}
		return cost
	}

	cost := evaluate(p)
	damp := initialDamp

	jw := mat.NewDense(npix, nNodes, nil)
	wr := mat.NewVecDense(npix, nil)
	trial := make([]float64, nNodes)

	for iter := 0; iter < maxIterations; iter++ {
		for i := 0; i < npix; i++ {
			r := resid[i]
			w := math.Pow(1+r*r, -0.25)
			d := 0.0
			if !clipped[i] {
				d = w * model[i] / errv[i]
			}
			for j := 0; j < nNodes; j++ {
				jw.Set(i, j, d*basis.At(i, j))
			}
			wr.SetVec(i, w*r)
		}

		var normal mat.Dense
		normal.Mul(jw.T(), jw)
		var grad mat.VecDense
		grad.MulVec(jw.T(), wr)

		accepted := false
		for ; damp <= maxDamp; damp *= 10 {
			var aug mat.Dense
			aug.CloneFrom(&normal)
			for j := 0; j < nNodes; j++ {
				aug.Set(j, j, normal.At(j, j)*(1+damp)+1e-12)
			}

			var delta mat.VecDense
			var neg mat.VecDense
			neg.ScaleVec(-1, &grad)
			if err := delta.SolveVec(&aug, &neg); err != nil {
				continue
			}

			for j := 0; j < nNodes; j++ {
				trial[j] = p[j] + delta.AtVec(j)
			}
			trialCost := evaluate(trial)
			if trialCost < cost {
				copy(p, trial)
				stepNorm := mat.Norm(&delta, math.Inf(1))
				improved := cost - trialCost
				cost = trialCost
				damp = math.Max(damp/10, 1e-12)
				accepted = true
				if stepNorm < 1e-10 || improved < 1e-12*(1+cost) {
					return p
				}
				break
			}
		}
		if !accepted {
			break
		}
	}

	// Residual state may belong to a rejected trial; re-evaluate at p so the
	// caller sees the accepted model.
	evaluate(p)
	return p
}

func clip(v float64) float64 {
	if v > clipExponent {
		return clipExponent
	}
	if v < -clipExponent {
		return -clipExponent
	}
	return v
}
