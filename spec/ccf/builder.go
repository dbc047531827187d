package ccf

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-specfit/spec/specio"
)

// Seed of the subsampling permutation; fixed for reproducible template sets.
const subsampleSeed = 44

// BuildOption configures a template transform build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	every    int
	vsinis   []float64
	workers  int
	revision string
}

// WithEvery keeps only len/n templates, chosen by a fixed-seed permutation,
// to bound compute cost. n <= 1 keeps everything.
func WithEvery(n int) BuildOption {
	return func(c *buildConfig) {
		if n > 1 {
			c.every = n
		}
	}
}

// WithVsinis requests one processed copy of every template per rotational
// velocity in the list (km/s).
func WithVsinis(vsinis []float64) BuildOption {
	return func(c *buildConfig) {
		c.vsinis = append([]float64(nil), vsinis...)
	}
}

// WithWorkers bounds the preprocessing worker pool. Defaults to GOMAXPROCS.
func WithWorkers(n int) BuildOption {
	return func(c *buildConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRevision tags the persisted metadata with a data-release revision.
func WithRevision(rev string) BuildOption {
	return func(c *buildConfig) {
		c.revision = rev
	}
}

// BuildTemplates preprocesses the template grid of a setup and persists the
// cross-correlation artifacts: metadata, forward Fourier transforms of every
// processed spectrum and of its square, and the processed spectra themselves.
//
// Each (template, vsini) combination is one unit of work; units run on a
// bounded worker pool and every unit is paired with its parameter vector and
// vsini tag at dispatch time, so assembly never depends on completion order.
// The first failing unit cancels the batch and its error is returned.
func BuildTemplates(ctx context.Context, setup, inDir, outDir string, cfg *Config, opts ...BuildOption) error {
	bc := buildConfig{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		if opt != nil {
			opt(&bc)
		}
	}
	vsinis := bc.vsinis
	if len(vsinis) == 0 {
		vsinis = []float64{0}
	}

	grid, err := LoadTemplateGrid(inDir, setup)
	if err != nil {
		return err
	}
	defer grid.Close()

	keep := subsample(grid.Specs.Rows(), bc.every)
	if len(keep) == 0 {
		return ErrEmptyGrid
	}

	type unit struct {
		tmpl  int
		vsini float64
	}
	units := make([]unit, 0, len(keep)*len(vsinis))
	params := make([][]float64, 0, cap(units))
	tags := make([]float64, 0, cap(units))
	for _, it := range keep {
		for _, v := range vsinis {
			units = append(units, unit{tmpl: it, vsini: v})
			params = append(params, grid.Vec[it])
			tags = append(tags, v)
		}
	}

	models := make([][]float64, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bc.workers)
	for k, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := grid.Specs.Row(u.tmpl)
			if err != nil {
				return err
			}
			// Rows are stored as log-flux.
			flux := make([]float64, len(row))
			for i, v := range row {
				flux[i] = math.Exp(v)
			}
			m, err := PreprocessTemplate(cfg, grid.Lam, flux, u.vsini)
			if err != nil {
				return fmt.Errorf("ccf: template %d vsini %g: %w", u.tmpl, u.vsini, err)
			}
			models[k] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	padded, ffts, err := transformModels(cfg, models)
	if err != nil {
		return err
	}

	meta := Meta{
		Params:   params,
		CCFConf:  cfg,
		Vsinis:   tags,
		ParNames: grid.ParNames,
		Revision: bc.revision,
	}
	if err := specio.WriteJSON(specio.CCFMetaPath(outDir, setup), meta); err != nil {
		return err
	}
	if err := specio.WriteComplex128Rows(specio.CCFDataPath(outDir, setup), ffts); err != nil {
		return err
	}
	return specio.WriteFloat64Rows(specio.CCFModelPath(outDir, setup), padded)
}

// subsample returns the kept template indices: everything when every <= 1,
// otherwise the first n/every entries of a fixed-seed permutation.
func subsample(n, every int) []int {
	if every <= 1 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	rng := rand.New(rand.NewSource(subsampleSeed))
	perm := rng.Perm(n)
	return perm[:n/every]
}

// transformModels pads every processed model to the shared power-of-two
// length and computes the forward transforms of the model and of its square.
// Each returned complex row holds the model transform followed by the
// squared-model transform.
func transformModels(cfg *Config, models [][]float64) ([][]float64, [][]complex128, error) {
	logGrid := cfg.LogGrid()
	lam := make([]float64, len(logGrid))
	for i, lg := range logGrid {
		lam[i] = math.Exp(lg)
	}

	padded := make([][]float64, len(models))
	ffts := make([][]complex128, len(models))

	var plan *algofft.Plan[complex128]
	size := 0
	for k, m := range models {
		_, p, err := Pad(lam, m)
		if err != nil {
			return nil, nil, err
		}
		if plan == nil {
			size = len(p)
			plan, err = algofft.NewPlan64(size)
			if err != nil {
				return nil, nil, fmt.Errorf("ccf: fft plan: %w", err)
			}
		}
		padded[k] = p

		sq := make([]float64, size)
		vecmath.MulBlock(sq, p, p)

		row := make([]complex128, 2*size)
		src := make([]complex128, size)
		for i, v := range p {
			src[i] = complex(v, 0)
		}
		if err := plan.Forward(row[:size], src); err != nil {
			return nil, nil, fmt.Errorf("ccf: fft: %w", err)
		}
		for i, v := range sq {
			src[i] = complex(v, 0)
		}
		if err := plan.Forward(row[size:], src); err != nil {
			return nil, nil, fmt.Errorf("ccf: fft: %w", err)
		}
		ffts[k] = row
	}
	return padded, ffts, nil
}
