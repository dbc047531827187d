package ccf

import (
	"fmt"

	"github.com/cwbudde/algo-specfit/spec/specio"
)

// TemplateGrid is the persisted template library for one spectral setup:
// a shared wavelength axis, one log-flux spectrum per row, and the parameter
// vector of every row with its fixed name ordering.
type TemplateGrid struct {
	Lam      []float64
	ParNames []string
	Vec      [][]float64

	// Specs holds log-flux rows; it may be an open file mapping.
	Specs *specio.Array
}

// Close releases a file-backed spectra array.
func (g *TemplateGrid) Close() error {
	if g.Specs == nil {
		return nil
	}
	return g.Specs.Close()
}

type templateGridMeta struct {
	Lam      []float64   `json:"lam"`
	Vec      [][]float64 `json:"vec"`
	ParNames []string    `json:"parnames"`
}

// LoadTemplateGrid opens the template grid artifacts of a setup. The spectra
// array is memory-mapped and owned by the returned grid.
func LoadTemplateGrid(dir, setup string) (*TemplateGrid, error) {
	var meta templateGridMeta
	if err := specio.ReadJSON(specio.TemplateMetaPath(dir, setup), &meta); err != nil {
		return nil, err
	}
	specs, err := specio.Open(specio.TemplateDataPath(dir, setup))
	if err != nil {
		return nil, err
	}
	g := &TemplateGrid{
		Lam:      meta.Lam,
		Vec:      meta.Vec,
		ParNames: meta.ParNames,
		Specs:    specs,
	}
	if specs.Rows() != len(meta.Vec) {
		_ = specs.Close()
		return nil, fmt.Errorf("ccf: template grid %q: %d spectra for %d parameter vectors",
			setup, specs.Rows(), len(meta.Vec))
	}
	if specs.Cols() != len(meta.Lam) {
		_ = specs.Close()
		return nil, fmt.Errorf("ccf: template grid %q: %d columns for %d wavelengths",
			setup, specs.Cols(), len(meta.Lam))
	}
	return g, nil
}

// SaveTemplateGrid writes the template grid artifacts for a setup. specs
// holds log-flux rows aligned with vec.
func SaveTemplateGrid(dir, setup string, lam []float64, parNames []string, vec [][]float64, specs [][]float64) error {
	if len(vec) != len(specs) {
		return fmt.Errorf("%w: %d parameter vectors for %d spectra", ErrLengthMismatch, len(vec), len(specs))
	}
	meta := templateGridMeta{Lam: lam, Vec: vec, ParNames: parNames}
	if err := specio.WriteJSON(specio.TemplateMetaPath(dir, setup), meta); err != nil {
		return err
	}
	return specio.WriteFloat64Rows(specio.TemplateDataPath(dir, setup), specs)
}

// Meta is the persisted CCF metadata: one parameter vector and vsini tag per
// processed template, the shared configuration, and a provenance tag.
type Meta struct {
	Params   [][]float64 `json:"params"`
	CCFConf  *Config     `json:"ccfconf"`
	Vsinis   []float64   `json:"vsinis"`
	ParNames []string    `json:"parnames"`
	Revision string      `json:"revision"`
}

// LoadMeta reads the CCF metadata of a setup.
func LoadMeta(dir, setup string) (*Meta, error) {
	var m Meta
	if err := specio.ReadJSON(specio.CCFMetaPath(dir, setup), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
