// Package broaden convolves model spectra with a rotational (vsini) profile.
//
// The kernel is the classical rotation profile with linear limb darkening,
// sampled on the spectrum's own velocity step and convolved in the time
// domain with edge renormalization so the flux level is preserved at the
// spectrum boundaries.
package broaden
