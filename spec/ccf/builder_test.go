package ccf

import (
	"context"
	"math"
	"testing"

	"github.com/cwbudde/algo-specfit/internal/testutil"
	"github.com/cwbudde/algo-specfit/spec/specio"
)

func writeTestGrid(t *testing.T, dir, setup string, ntempl int) []float64 {
	t.Helper()
	lam := testutil.LinearLam(3900, 5100, 2000)

	vec := make([][]float64, ntempl)
	specs := make([][]float64, ntempl)
	for k := range specs {
		level := 2 + float64(k)
		row := make([]float64, len(lam))
		for i := range row {
			row[i] = math.Log(level)
		}
		specs[k] = row
		vec[k] = []float64{5000 + 100*float64(k), 4.5}
	}
	if err := SaveTemplateGrid(dir, setup, lam, []string{"teff", "logg"}, vec, specs); err != nil {
		t.Fatalf("SaveTemplateGrid: %v", err)
	}
	return lam
}

func TestBuildTemplates(t *testing.T) {
	dir := t.TempDir()
	const setup = "test"
	writeTestGrid(t, dir, setup, 2)

	cfg := testConfig(t, 512)
	err := BuildTemplates(context.Background(), setup, dir, dir, cfg,
		WithVsinis([]float64{0, 10}),
		WithWorkers(2),
		WithRevision("v1"))
	if err != nil {
		t.Fatalf("BuildTemplates: %v", err)
	}

	meta, err := LoadMeta(dir, setup)
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if meta.Revision != "v1" {
		t.Fatalf("revision %q, want v1", meta.Revision)
	}
	if len(meta.Params) != 4 || len(meta.Vsinis) != 4 {
		t.Fatalf("%d params / %d vsinis, want 4 each", len(meta.Params), len(meta.Vsinis))
	}
	// Units are ordered template-major, vsini-minor.
	wantVsini := []float64{0, 10, 0, 10}
	wantTeff := []float64{5000, 5000, 5100, 5100}
	for k := range wantVsini {
		if meta.Vsinis[k] != wantVsini[k] {
			t.Fatalf("vsini[%d] = %v, want %v", k, meta.Vsinis[k], wantVsini[k])
		}
		if meta.Params[k][0] != wantTeff[k] {
			t.Fatalf("params[%d] = %v, want teff %v", k, meta.Params[k], wantTeff[k])
		}
	}
	if meta.CCFConf == nil || meta.CCFConf.NPoints != 512 {
		t.Fatalf("persisted config %+v lacks the grid size", meta.CCFConf)
	}

	ffts, err := specio.Open(specio.CCFDataPath(dir, setup))
	if err != nil {
		t.Fatalf("open ffts: %v", err)
	}
	defer ffts.Close()
	if ffts.Rows() != 4 || ffts.Cols() != 2*512 {
		t.Fatalf("fft array %dx%d, want 4x%d", ffts.Rows(), ffts.Cols(), 2*512)
	}
	row, err := ffts.ComplexRow(0)
	if err != nil {
		t.Fatalf("ComplexRow: %v", err)
	}
	// The zero-frequency bin of the model transform is the sample sum of a
	// non-negative spectrum.
	if real(row[0]) <= 0 || math.Abs(imag(row[0])) > 1e-9 {
		t.Fatalf("DC bin %v, want positive real", row[0])
	}

	models, err := specio.Open(specio.CCFModelPath(dir, setup))
	if err != nil {
		t.Fatalf("open models: %v", err)
	}
	defer models.Close()
	if models.Rows() != 4 || models.Cols() != 512 {
		t.Fatalf("model array %dx%d, want 4x512", models.Rows(), models.Cols())
	}
	m, err := models.Row(1)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	testutil.RequireFinite(t, m)
	mid := m[len(m)/2]
	if math.Abs(mid-1) > 0.05 {
		t.Fatalf("central processed flux %v, want ~1", mid)
	}
}

func TestBuildTemplatesSubsample(t *testing.T) {
	dir := t.TempDir()
	const setup = "sub"
	writeTestGrid(t, dir, setup, 6)

	cfg := testConfig(t, 256)
	err := BuildTemplates(context.Background(), setup, dir, dir, cfg, WithEvery(3))
	if err != nil {
		t.Fatalf("BuildTemplates: %v", err)
	}
	meta, err := LoadMeta(dir, setup)
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	// 6 templates, every 3rd kept, one implicit vsini.
	if len(meta.Params) != 2 {
		t.Fatalf("%d units, want 2", len(meta.Params))
	}

	// The permutation is seeded, so a rebuild selects the same templates.
	dir2 := t.TempDir()
	writeTestGrid(t, dir2, setup, 6)
	if err := BuildTemplates(context.Background(), setup, dir2, dir2, cfg, WithEvery(3)); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	meta2, err := LoadMeta(dir2, setup)
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	for k := range meta.Params {
		if meta.Params[k][0] != meta2.Params[k][0] {
			t.Fatalf("subsample selection not reproducible: %v vs %v", meta.Params, meta2.Params)
		}
	}
}

func TestBuildTemplatesMissingGrid(t *testing.T) {
	cfg := testConfig(t, 256)
	if err := BuildTemplates(context.Background(), "absent", t.TempDir(), t.TempDir(), cfg); err == nil {
		t.Fatal("expected error for missing template grid")
	}
}

func TestLoadTemplateGridShapeCheck(t *testing.T) {
	dir := t.TempDir()
	lam := testutil.LinearLam(4000, 5000, 8)
	vec := [][]float64{{1}, {2}}
	specs := [][]float64{make([]float64, 8), make([]float64, 8)}
	if err := SaveTemplateGrid(dir, "ok", lam, []string{"p"}, vec, specs); err != nil {
		t.Fatalf("SaveTemplateGrid: %v", err)
	}
	g, err := LoadTemplateGrid(dir, "ok")
	if err != nil {
		t.Fatalf("LoadTemplateGrid: %v", err)
	}
	defer g.Close()
	if g.Specs.Rows() != 2 || g.Specs.Cols() != 8 {
		t.Fatalf("grid %dx%d, want 2x8", g.Specs.Rows(), g.Specs.Cols())
	}

	// Mismatched metadata is rejected.
	if err := SaveTemplateGrid(dir, "badmeta", lam[:4], []string{"p"}, vec, specs); err != nil {
		t.Fatalf("SaveTemplateGrid: %v", err)
	}
	if _, err := LoadTemplateGrid(dir, "badmeta"); err == nil {
		t.Fatal("expected error for wavelength/column mismatch")
	}
}
