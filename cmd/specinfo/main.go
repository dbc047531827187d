// Command specinfo prints the contents of persisted spectral-grid artifacts.
//
// Usage:
//
//	specinfo [flags] [setup ...]
//
// Without arguments it prints info for every setup found in the directory.
//
// Examples:
//
//	specinfo -dir /data/templates giraffe_hr21
//	specinfo -dir /data/templates -list
//	specinfo -dir /data/templates -arrays sdss1
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-specfit/spec/ccf"
	"github.com/cwbudde/algo-specfit/spec/interp"
	"github.com/cwbudde/algo-specfit/spec/specio"
)

func main() {
	dir := flag.String("dir", ".", "artifact directory")
	list := flag.Bool("list", false, "list setups found in the directory")
	arrays := flag.Bool("arrays", false, "include the shapes of the binary arrays")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: specinfo [flags] [setup ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the contents of persisted spectral-grid artifacts.\n")
		fmt.Fprintf(os.Stderr, "Without arguments, prints info for every setup in the directory.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  specinfo -dir /data/templates giraffe_hr21\n")
		fmt.Fprintf(os.Stderr, "  specinfo -dir /data/templates -list\n")
	}
	flag.Parse()

	setups := flag.Args()
	if len(setups) == 0 {
		var err error
		setups, err = scanSetups(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if len(setups) == 0 {
		fmt.Fprintf(os.Stderr, "error: no setups found in %s\n", *dir)
		os.Exit(1)
	}

	if *list {
		for _, s := range setups {
			fmt.Println(s)
		}
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SETUP\tARTIFACT\tPARAMS\tREVISION\tDETAIL")
	for _, s := range setups {
		printSetup(tw, *dir, s, *arrays)
	}
	tw.Flush()
}

// scanSetups collects setup names from the metadata files in dir.
func scanSetups(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		for _, prefix := range []string{"templ_", "ccf_", "interp_"} {
			if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".json") {
				seen[strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func printSetup(tw *tabwriter.Writer, dir, setup string, arrays bool) {
	found := false

	if grid, err := ccf.LoadTemplateGrid(dir, setup); err == nil {
		found = true
		fmt.Fprintf(tw, "%s\ttemplate grid\t%s\t\t%d spectra x %d px\n",
			setup, strings.Join(grid.ParNames, ","), grid.Specs.Rows(), grid.Specs.Cols())
		grid.Close()
	}

	if meta, err := ccf.LoadMeta(dir, setup); err == nil {
		found = true
		detail := fmt.Sprintf("%d units", len(meta.Params))
		if meta.CCFConf != nil {
			detail += fmt.Sprintf(", %d grid points, splinestep %.0f km/s",
				meta.CCFConf.NPoints, meta.CCFConf.SplineStep)
		}
		fmt.Fprintf(tw, "%s\tccf\t%s\t%s\t%s\n",
			setup, strings.Join(meta.ParNames, ","), meta.Revision, detail)
		if arrays {
			printArray(tw, setup, "ccf transforms", specio.CCFDataPath(dir, setup))
			printArray(tw, setup, "ccf models", specio.CCFModelPath(dir, setup))
		}
	}

	cache := interp.NewCache(dir, interp.WithWarmup(false))
	if it, err := cache.Get(setup); err == nil {
		found = true
		fmt.Fprintf(tw, "%s\tinterpolator\t%s\t%s\t%d px, built by %s\n",
			setup, strings.Join(it.ParNames(), ","), it.Revision(), len(it.Lam()),
			orUnknown(it.CreationSoftwareVersion()))
		if arrays {
			printArray(tw, setup, "interp spectra", specio.InterpDataPath(dir, setup))
		}
	}
	cache.Close()

	if !found {
		fmt.Fprintf(tw, "%s\t(no readable artifacts)\t\t\t\n", setup)
	}
}

func printArray(tw *tabwriter.Writer, setup, label, path string) {
	a, err := specio.Open(path)
	if err != nil {
		fmt.Fprintf(tw, "%s\t%s\t\t\tunreadable: %v\n", setup, label, err)
		return
	}
	fmt.Fprintf(tw, "%s\t%s\t\t\t%d x %d %s (%s)\n",
		setup, label, a.Rows(), a.Cols(), a.Kind(), filepath.Base(path))
	a.Close()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
