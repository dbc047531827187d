package interp

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-specfit/spec/specio"
)

// Triangulation is the persisted Delaunay artifact: the grid parameter
// points, the simplices as vertex-index tuples, the neighbor simplex across
// every face (-1 at the hull boundary), and the precomputed barycentric
// affine transform of every simplex.
//
// Transforms follow the usual layout: rows 0..ndim-1 hold the inverse edge
// matrix, row ndim holds the reference vertex, so that
// b = T[:ndim] * (p - T[ndim]) gives the first ndim barycentric coordinates.
type Triangulation struct {
	Points     [][]float64   `json:"points"`
	Simplices  [][]int       `json:"simplices"`
	Neighbors  [][]int       `json:"neighbors"`
	Transforms [][][]float64 `json:"transforms"`
}

// NDim returns the parameter-space dimension.
func (t *Triangulation) NDim() int {
	if len(t.Points) == 0 {
		return 0
	}
	return len(t.Points[0])
}

func (t *Triangulation) validate() error {
	ndim := t.NDim()
	if ndim == 0 || len(t.Simplices) == 0 {
		return fmt.Errorf("%w: empty triangulation", ErrBadArtifact)
	}
	if len(t.Neighbors) != len(t.Simplices) || len(t.Transforms) != len(t.Simplices) {
		return fmt.Errorf("%w: %d simplices, %d neighbor rows, %d transforms",
			ErrBadArtifact, len(t.Simplices), len(t.Neighbors), len(t.Transforms))
	}
	for i, s := range t.Simplices {
		if len(s) != ndim+1 || len(t.Neighbors[i]) != ndim+1 {
			return fmt.Errorf("%w: simplex %d has %d vertices, want %d", ErrBadArtifact, i, len(s), ndim+1)
		}
		for _, v := range s {
			if v < 0 || v >= len(t.Points) {
				return fmt.Errorf("%w: simplex %d references point %d of %d", ErrBadArtifact, i, v, len(t.Points))
			}
		}
		if len(t.Transforms[i]) != ndim+1 {
			return fmt.Errorf("%w: transform %d has %d rows, want %d", ErrBadArtifact, i, len(t.Transforms[i]), ndim+1)
		}
	}
	return nil
}

// Barycentric tolerance: coordinates this far below zero still count as
// inside, so hull-boundary queries do not fall out of the triangulation.
const baryEps = 1e-10

// TriInterpolator interpolates spectra barycentrically over a Delaunay
// triangulation. Queries outside the convex hull evaluate to a NaN vector.
type TriInterpolator struct {
	tri   *Triangulation
	dats  *specio.Array
	flags []float64
	exp   bool
}

// NewTriInterpolator validates the triangulation against the flux array and
// the per-vertex outside flags.
func NewTriInterpolator(tri *Triangulation, dats *specio.Array, extraFlags []float64, exp bool) (*TriInterpolator, error) {
	if err := tri.validate(); err != nil {
		return nil, err
	}
	if len(tri.Points) > dats.Rows() {
		return nil, fmt.Errorf("%w: %d points for %d spectra", ErrBadArtifact, len(tri.Points), dats.Rows())
	}
	if extraFlags != nil && len(extraFlags) != len(tri.Points) {
		return nil, fmt.Errorf("%w: %d outside flags for %d points", ErrBadArtifact, len(extraFlags), len(tri.Points))
	}
	return &TriInterpolator{tri: tri, dats: dats, flags: extraFlags, exp: exp}, nil
}

// barycentric fills b with the ndim+1 barycentric coordinates of p in the
// given simplex. The coordinates sum to 1 by construction.
func (t *TriInterpolator) barycentric(ix int, p []float64, b []float64) {
	ndim := t.tri.NDim()
	tr := t.tri.Transforms[ix]
	sum := 0.0
	for j := 0; j < ndim; j++ {
		v := 0.0
		for k := 0; k < ndim; k++ {
			v += tr[j][k] * (p[k] - tr[ndim][k])
		}
		b[j] = v
		sum += v
	}
	b[ndim] = 1 - sum
}

// findSimplex locates the simplex enclosing p with a visibility walk from
// simplex 0, falling back to a full scan if the walk cycles. Returns -1 when
// p lies outside the convex hull.
func (t *TriInterpolator) findSimplex(p []float64, b []float64) int {
	ndim := t.tri.NDim()
	cur := 0
	for step := 0; step <= len(t.tri.Simplices); step++ {
		t.barycentric(cur, p, b)
		worst := 0
		for j := 1; j <= ndim; j++ {
			if b[j] < b[worst] {
				worst = j
			}
		}
		if b[worst] >= -baryEps {
			return cur
		}
		next := t.tri.Neighbors[cur][worst]
		if next < 0 {
			return -1
		}
		cur = next
	}

	// Walk cycled on a degenerate triangulation; scan everything.
	for ix := range t.tri.Simplices {
		t.barycentric(ix, p, b)
		inside := true
		for j := 0; j <= ndim; j++ {
			if b[j] < -baryEps {
				inside = false
				break
			}
		}
		if inside {
			return ix
		}
	}
	return -1
}

// Evaluate returns the barycentrically interpolated spectrum at p, or a NaN
// vector when p lies outside the convex hull.
func (t *TriInterpolator) Evaluate(p []float64) []float64 {
	ndim := t.tri.NDim()
	if len(p) != ndim {
		return nanSpectrum(t.dats.Cols())
	}
	b := make([]float64, ndim+1)
	ix := t.findSimplex(p, b)
	if ix < 0 {
		return nanSpectrum(t.dats.Cols())
	}

	out := make([]float64, t.dats.Cols())
	for j, vertex := range t.tri.Simplices[ix] {
		row, err := t.dats.Row(vertex)
		if err != nil {
			return nanSpectrum(t.dats.Cols())
		}
		w := b[j]
		for i, v := range row {
			out[i] += w * v
		}
	}
	if t.exp {
		for i := range out {
			out[i] = math.Exp(out[i])
		}
	}
	return out
}

// Outside reports whether p lies outside the convex hull or inside a region
// whose vertices are flagged as adjacent to missing grid coverage.
func (t *TriInterpolator) Outside(p []float64) bool {
	ndim := t.tri.NDim()
	if len(p) != ndim {
		return true
	}
	b := make([]float64, ndim+1)
	ix := t.findSimplex(p, b)
	if ix < 0 {
		return true
	}
	if t.flags == nil {
		return false
	}
	v := 0.0
	for j, vertex := range t.tri.Simplices[ix] {
		v += b[j] * t.flags[vertex]
	}
	return math.Abs(v) > 1e-9
}

func nanSpectrum(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
