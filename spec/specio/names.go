package specio

import (
	"fmt"
	"path/filepath"
)

// File-name templates, keyed by spectral setup name.
const (
	templateMetaName = "templ_%s.json"
	templateDataName = "templdat_%s.bin"
	ccfMetaName      = "ccf_%s.json"
	ccfDataName      = "ccfdat_%s.bin"
	ccfModelName     = "ccfmod_%s.bin"
	interpMetaName   = "interp_%s.json"
	interpDataName   = "interpdat_%s.bin"
)

// TemplateMetaPath returns the template grid metadata path for a setup.
func TemplateMetaPath(dir, setup string) string {
	return filepath.Join(dir, fmt.Sprintf(templateMetaName, setup))
}

// TemplateDataPath returns the template grid log-flux array path for a setup.
func TemplateDataPath(dir, setup string) string {
	return filepath.Join(dir, fmt.Sprintf(templateDataName, setup))
}

// CCFMetaPath returns the CCF metadata path for a setup.
func CCFMetaPath(dir, setup string) string {
	return filepath.Join(dir, fmt.Sprintf(ccfMetaName, setup))
}

// CCFDataPath returns the CCF Fourier-array path for a setup.
func CCFDataPath(dir, setup string) string {
	return filepath.Join(dir, fmt.Sprintf(ccfDataName, setup))
}

// CCFModelPath returns the processed-model array path for a setup.
func CCFModelPath(dir, setup string) string {
	return filepath.Join(dir, fmt.Sprintf(ccfModelName, setup))
}

// InterpMetaPath returns the interpolator metadata path for a setup.
func InterpMetaPath(dir, setup string) string {
	return filepath.Join(dir, fmt.Sprintf(interpMetaName, setup))
}

// InterpDataPath returns the interpolator flux-array path for a setup.
func InterpDataPath(dir, setup string) string {
	return filepath.Join(dir, fmt.Sprintf(interpDataName, setup))
}
