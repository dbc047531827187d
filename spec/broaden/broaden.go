package broaden

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by broadening functions.
var (
	ErrTooShort     = errors.New("broaden: need at least two samples")
	ErrNotAscending = errors.New("broaden: wavelength vector must be strictly increasing")
	ErrNegativeVel  = errors.New("broaden: vsini must be non-negative")
)

const (
	speedOfLightKMS = 3e5

	// Linear limb-darkening coefficient of the rotation profile.
	limbDarkening = 0.6
)

// Kernel returns the rotational broadening profile for the given projected
// rotation velocity, sampled at velocity spacing dv (both km/s). The kernel
// has odd length 2*ceil(vsini/dv)+1 and unit sum.
func Kernel(dv, vsini float64) ([]float64, error) {
	if dv <= 0 || vsini <= 0 {
		return nil, fmt.Errorf("broaden: kernel requires positive dv and vsini: %v, %v", dv, vsini)
	}
	half := int(math.Ceil(vsini / dv))
	out := make([]float64, 2*half+1)

	sum := 0.0
	for k := -half; k <= half; k++ {
		x := float64(k) * dv / vsini
		y := 1 - x*x
		if y <= 0 {
			continue
		}
		v := 2*(1-limbDarkening)*math.Sqrt(y) + 0.5*math.Pi*limbDarkening*y
		out[k+half] = v
		sum += v
	}
	if sum == 0 {
		// Kernel narrower than one sample; degenerate to identity.
		out[half] = 1
		sum = 1
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

// Convolve broadens flux by the rotation profile for vsini (km/s).
//
// The velocity step is taken as the mean logarithmic wavelength step of lam
// scaled by the speed of light. vsini of zero returns a copy of the input
// unchanged. Near the spectrum edges the kernel is renormalized over the
// overlapping samples.
func Convolve(lam, flux []float64, vsini float64) ([]float64, error) {
	if len(lam) < 2 {
		return nil, ErrTooShort
	}
	if len(lam) != len(flux) {
		return nil, fmt.Errorf("broaden: length mismatch: lam=%d flux=%d", len(lam), len(flux))
	}
	if vsini < 0 {
		return nil, fmt.Errorf("%w: %v", ErrNegativeVel, vsini)
	}
	if vsini == 0 {
		return append([]float64(nil), flux...), nil
	}

	logSpan := 0.0
	for i := 1; i < len(lam); i++ {
		if !(lam[i] > lam[i-1]) {
			return nil, fmt.Errorf("%w: at index %d", ErrNotAscending, i)
		}
	}
	logSpan = math.Log(lam[len(lam)-1] / lam[0])
	dv := speedOfLightKMS * logSpan / float64(len(lam)-1)

	kernel, err := Kernel(dv, vsini)
	if err != nil {
		return nil, err
	}
	half := len(kernel) / 2

	out := make([]float64, len(flux))
	for i := range flux {
		acc := 0.0
		norm := 0.0
		for k, w := range kernel {
			j := i + k - half
			if j < 0 || j >= len(flux) {
				continue
			}
			acc += w * flux[j]
			norm += w
		}
		if norm > 0 {
			out[i] = acc / norm
		}
	}
	return out, nil
}
