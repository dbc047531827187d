package interp

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-specfit/internal/testutil"
)

func saveRegularSetup(t *testing.T, dir, setup string) {
	t.Helper()
	rows := make([][]float64, 9)
	for k := range rows {
		v := math.Log(float64(k + 1))
		rows[k] = []float64{v, v, v, v}
	}
	a := &Artifact{
		Lam:      testutil.LinearLam(4000, 5000, 4),
		Mapper:   Identity(2),
		ParNames: []string{"teff", "logg"},
		Revision: "dr1",
		GitRev:   "abc123",
		Regular: &RegularGrid{
			UVecs:  [][]float64{{1, 2, 3}, {10, 20, 30}},
			Shape:  []int{3, 3},
			IDGrid: []int64{0, 1, 2, 3, 4, 5, 6, 7, 8},
		},
	}
	if err := SaveArtifact(dir, setup, a, rows); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
}

func saveTriangSetup(t *testing.T, dir, setup string) {
	t.Helper()
	rows := make([][]float64, 4)
	for k := range rows {
		v := math.Log(float64(k + 1))
		rows[k] = []float64{v, v}
	}
	a := &Artifact{
		Lam:      testutil.LinearLam(4000, 5000, 2),
		Mapper:   Identity(2),
		ParNames: []string{"x", "y"},
		Triang:   unitSquareTriangulation(),
	}
	if err := SaveArtifact(dir, setup, a, rows); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
}

func TestCacheRegularSetup(t *testing.T) {
	dir := t.TempDir()
	saveRegularSetup(t, dir, "reg")

	c := NewCache(dir)
	defer c.Close()

	it, err := c.Get("reg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if it.Name() != "reg" || it.Revision() != "dr1" || it.CreationSoftwareVersion() != "abc123" {
		t.Fatalf("provenance %q/%q/%q lost", it.Name(), it.Revision(), it.CreationSoftwareVersion())
	}
	if len(it.Lam()) != 4 {
		t.Fatalf("lam length %d, want 4", len(it.Lam()))
	}

	// Row 4 holds log(5); a vertex query returns it exponentiated.
	got, err := it.Eval([]float64{2, 20})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got, []float64{5, 5, 5, 5}, 1e-9)

	named, err := it.EvalNamed(map[string]float64{"teff": 2, "logg": 20})
	if err != nil {
		t.Fatalf("EvalNamed: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, named, got, 0)

	if _, err := it.EvalNamed(map[string]float64{"teff": 2, "feh": 0}); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("misnamed parameter: got %v, want ErrUnknownParameter", err)
	}

	out, err := it.OutsideFlag([]float64{0, 20})
	if err != nil {
		t.Fatalf("OutsideFlag: %v", err)
	}
	if !out {
		t.Fatal("query below the grid not flagged outside")
	}
	out, err = it.OutsideFlag([]float64{2, 20})
	if err != nil {
		t.Fatalf("OutsideFlag: %v", err)
	}
	if out {
		t.Fatal("interior query flagged outside")
	}
}

func TestCacheTriangSetup(t *testing.T) {
	dir := t.TempDir()
	saveTriangSetup(t, dir, "tri")

	c := NewCache(dir, WithWarmup(false))
	defer c.Close()

	it, err := c.Get("tri")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	names, err := c.ParNames("tri")
	if err != nil {
		t.Fatalf("ParNames: %v", err)
	}
	if len(names) != 2 || names[0] != "x" || names[1] != "y" {
		t.Fatalf("ParNames %v, want [x y]", names)
	}

	// (0.25, 0.5) carries weights 0.25/0.25/0.5 on vertices 0/1/2.
	got, err := it.Eval([]float64{0.25, 0.5})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := math.Exp(0.25*math.Log(2) + 0.5*math.Log(3))
	if math.Abs(got[0]-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got[0], want)
	}

	out, err := it.OutsideFlag([]float64{2, 2})
	if err != nil {
		t.Fatalf("OutsideFlag: %v", err)
	}
	if !out {
		t.Fatal("query beyond the hull not flagged outside")
	}
}

func TestCacheReturnsSameInstance(t *testing.T) {
	dir := t.TempDir()
	saveRegularSetup(t, dir, "reg")

	c := NewCache(dir, WithWarmup(false))
	defer c.Close()

	a, err := c.Get("reg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := c.Get("reg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a != b {
		t.Fatal("repeated Get built a second interpolator")
	}
}

func TestCacheUnrecognizedArtifact(t *testing.T) {
	dir := t.TempDir()
	// Metadata with neither a triangulation nor a regular grid.
	a := &Artifact{Lam: []float64{1}, Mapper: Identity(1), ParNames: []string{"p"}}
	if err := SaveArtifact(dir, "odd", a, [][]float64{{0}}); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}

	c := NewCache(dir, WithWarmup(false))
	defer c.Close()
	if _, err := c.Get("odd"); !errors.Is(err, ErrUnrecognizedArtifact) {
		t.Fatalf("got %v, want ErrUnrecognizedArtifact", err)
	}
}

func TestCacheMissingSetup(t *testing.T) {
	c := NewCache(t.TempDir())
	defer c.Close()
	if _, err := c.Get("absent"); err == nil {
		t.Fatal("expected error for a setup with no artifacts")
	}
}
