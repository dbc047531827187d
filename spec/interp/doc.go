// Package interp maps continuous stellar-parameter vectors to interpolated
// template spectra.
//
// Two interchangeable strategies cover the two grid shapes found in template
// libraries: barycentric interpolation over a Delaunay triangulation for
// irregular point sets, and multilinear interpolation over a regular grid
// with possible holes. The strategy is decided once when a persisted
// interpolator artifact is loaded, and both implement the same Evaluator
// capability (evaluate plus an outside-grid predicate).
//
// A Cache owns one interpolator per spectral setup for the lifetime of the
// process, memory-mapping the flux arrays lazily on first use.
package interp
