// Package ccf prepares spectra for Fourier-domain cross-correlation.
//
// It turns raw synthetic template spectra and observed spectra into
// continuum-normalized, apodized, uniformly log-sampled vectors, and batch
// processes whole template grids in parallel, persisting the forward Fourier
// transforms needed by the velocity search alongside the processed models.
//
// The pipeline shared by the two preprocessing entry points is: optional
// rotational broadening (templates only), continuum normalization, linear
// resampling onto the uniform log-wavelength grid, and a raised-cosine edge
// taper. Symmetric zero padding to a power-of-two length happens just before
// the Fourier transform.
package ccf
