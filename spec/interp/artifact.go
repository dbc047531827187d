package interp

import (
	"fmt"

	"github.com/cwbudde/algo-specfit/spec/specio"
)

// Artifact is the persisted interpolator metadata of one spectral setup.
// Exactly one of the Triang or Regular field groups must be present; the
// flux data itself lives in the companion array file named by setup.
type Artifact struct {
	Lam      []float64   `json:"lam"`
	Vec      [][]float64 `json:"vec"`
	Mapper   Mapper      `json:"mapper"`
	ParNames []string    `json:"parnames"`
	Revision string      `json:"revision"`
	GitRev   string      `json:"git_rev"`

	Triang     *Triangulation `json:"triang,omitempty"`
	ExtraFlags []float64      `json:"extraflags,omitempty"`

	Regular *RegularGrid `json:"regular,omitempty"`
}

// SaveArtifact writes the metadata document and the log-flux array of a
// setup. specs rows must align with the artifact's point or grid indices.
func SaveArtifact(dir, setup string, a *Artifact, specs [][]float64) error {
	if err := specio.WriteJSON(specio.InterpMetaPath(dir, setup), a); err != nil {
		return err
	}
	return specio.WriteFloat64Rows(specio.InterpDataPath(dir, setup), specs)
}

// Grid spectra are stored as log-flux; evaluation exponentiates.
const expSpectra = true

// loadInterpolator builds the tagged interpolator variant for a setup from
// its persisted artifacts. The flux array is memory-mapped and owned by the
// returned interpolator; warm forces a full read to prime the OS page cache.
func loadInterpolator(dir, setup string, warm bool) (*Interpolator, error) {
	dats, err := specio.Open(specio.InterpDataPath(dir, setup))
	if err != nil {
		return nil, err
	}
	if warm {
		dats.Warm()
	}

	var a Artifact
	if err := specio.ReadJSON(specio.InterpMetaPath(dir, setup), &a); err != nil {
		_ = dats.Close()
		return nil, err
	}

	var eval Evaluator
	switch {
	case a.Triang != nil:
		eval, err = NewTriInterpolator(a.Triang, dats, a.ExtraFlags, expSpectra)
	case a.Regular != nil:
		eval, err = NewGridInterpolator(a.Regular, dats, expSpectra)
	default:
		err = fmt.Errorf("%w: setup %q", ErrUnrecognizedArtifact, setup)
	}
	if err != nil {
		_ = dats.Close()
		return nil, err
	}

	return &Interpolator{
		name:     setup,
		lam:      a.Lam,
		mapper:   a.Mapper,
		parNames: a.ParNames,
		revision: a.Revision,
		software: a.GitRev,
		eval:     eval,
		dats:     dats,
	}, nil
}
