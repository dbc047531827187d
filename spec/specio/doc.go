// Package specio reads and writes the persisted artifacts shared between the
// template preparation stage and the fitting stage: 2-D numeric arrays in a
// small mmap-friendly binary container, and JSON metadata documents.
//
// All artifact files are named by spectral setup through a fixed template per
// artifact kind (see the *Path helpers), so producers and consumers agree on
// locations without passing paths around.
package specio
