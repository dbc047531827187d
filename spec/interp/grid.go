package interp

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-specfit/spec/specio"
)

// RegularGrid is the persisted regular-grid artifact: the sorted unique
// coordinate values of every dimension and a row-major flattened N-D index
// array mapping coordinate tuples to spectrum rows, with -1 marking grid
// points that have no template.
type RegularGrid struct {
	UVecs  [][]float64 `json:"uvecs"`
	Shape  []int       `json:"shape"`
	IDGrid []int64     `json:"idgrid"`
}

// GridInterpolator performs multilinear interpolation over a RegularGrid.
//
// Queries out of bounds in any dimension, and queries whose enclosing
// hypercube has any absent corner, return a flat unit spectrum; partial
// interpolation from a subset of corners is deliberately not attempted,
// because it would silently bias the output near grid holes.
type GridInterpolator struct {
	grid    *RegularGrid
	dats    *specio.Array
	exp     bool
	strides []int
	corners [][]int
}

// NewGridInterpolator validates the artifact shape against the flux array
// and precomputes strides and hypercube corner offsets.
func NewGridInterpolator(grid *RegularGrid, dats *specio.Array, exp bool) (*GridInterpolator, error) {
	ndim := len(grid.UVecs)
	if ndim == 0 {
		return nil, fmt.Errorf("%w: regular grid has no dimensions", ErrBadArtifact)
	}
	if len(grid.Shape) != ndim {
		return nil, fmt.Errorf("%w: shape rank %d for %d dimensions", ErrBadArtifact, len(grid.Shape), ndim)
	}
	total := 1
	for d, sz := range grid.Shape {
		if sz != len(grid.UVecs[d]) {
			return nil, fmt.Errorf("%w: shape[%d]=%d but %d unique values", ErrBadArtifact, d, sz, len(grid.UVecs[d]))
		}
		total *= sz
	}
	if total != len(grid.IDGrid) {
		return nil, fmt.Errorf("%w: index grid has %d entries for shape product %d", ErrBadArtifact, len(grid.IDGrid), total)
	}
	for _, id := range grid.IDGrid {
		if id >= int64(dats.Rows()) {
			return nil, fmt.Errorf("%w: index %d beyond %d spectra", ErrBadArtifact, id, dats.Rows())
		}
	}

	strides := make([]int, ndim)
	s := 1
	for d := ndim - 1; d >= 0; d-- {
		strides[d] = s
		s *= grid.Shape[d]
	}

	corners := make([][]int, 1<<ndim)
	for c := range corners {
		bits := make([]int, ndim)
		for d := 0; d < ndim; d++ {
			bits[d] = (c >> d) & 1
		}
		corners[c] = bits
	}

	return &GridInterpolator{
		grid:    grid,
		dats:    dats,
		exp:     exp,
		strides: strides,
		corners: corners,
	}, nil
}

// locate returns the left bin index of p in every dimension, or false when p
// is out of bounds in any dimension.
func (g *GridInterpolator) locate(p []float64) ([]int, bool) {
	ndim := len(g.grid.UVecs)
	if len(p) != ndim {
		return nil, false
	}
	pos := make([]int, ndim)
	for d := 0; d < ndim; d++ {
		uv := g.grid.UVecs[d]
		// Index of the last coordinate <= p[d].
		i := sort.Search(len(uv), func(j int) bool { return uv[j] > p[d] }) - 1
		if i < 0 || i >= len(uv)-1 {
			return nil, false
		}
		pos[d] = i
	}
	return pos, true
}

// Evaluate returns the multilinearly interpolated spectrum at p, or the flat
// unit spectrum when p is out of bounds or a needed corner is missing.
func (g *GridInterpolator) Evaluate(p []float64) []float64 {
	pos, ok := g.locate(p)
	if !ok {
		return unitSpectrum(g.dats.Cols())
	}

	ndim := len(pos)
	frac := make([]float64, ndim)
	for d := 0; d < ndim; d++ {
		uv := g.grid.UVecs[d]
		frac[d] = (p[d] - uv[pos[d]]) / (uv[pos[d]+1] - uv[pos[d]])
	}

	weights := make([]float64, len(g.corners))
	rows := make([]int64, len(g.corners))
	for c, bits := range g.corners {
		w := 1.0
		flat := 0
		for d := 0; d < ndim; d++ {
			if bits[d] == 1 {
				w *= frac[d]
			} else {
				w *= 1 - frac[d]
			}
			flat += (pos[d] + bits[d]) * g.strides[d]
		}
		id := g.grid.IDGrid[flat]
		if id < 0 {
			return unitSpectrum(g.dats.Cols())
		}
		weights[c] = w
		rows[c] = id
	}

	out := make([]float64, g.dats.Cols())
	for c := range rows {
		row, err := g.dats.Row(int(rows[c]))
		if err != nil {
			return unitSpectrum(g.dats.Cols())
		}
		w := weights[c]
		for i, v := range row {
			out[i] += w * v
		}
	}
	if g.exp {
		for i := range out {
			out[i] = math.Exp(out[i])
		}
	}
	return out
}

// Outside reports whether p is out of bounds in any dimension or any corner
// of its enclosing hypercube is absent from the grid.
func (g *GridInterpolator) Outside(p []float64) bool {
	pos, ok := g.locate(p)
	if !ok {
		return true
	}
	for _, bits := range g.corners {
		flat := 0
		for d := range pos {
			flat += (pos[d] + bits[d]) * g.strides[d]
		}
		if g.grid.IDGrid[flat] < 0 {
			return true
		}
	}
	return false
}

func unitSpectrum(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
