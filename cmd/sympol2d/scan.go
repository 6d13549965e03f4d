package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/sympol2d/internal/config"
	"github.com/banshee-data/sympol2d/internal/db"
	"github.com/banshee-data/sympol2d/internal/fsutil"
	"github.com/banshee-data/sympol2d/internal/material"
	"github.com/banshee-data/sympol2d/internal/report"
	"github.com/banshee-data/sympol2d/internal/stacking"
)

const mapPNGSize = 6 * vg.Inch

// outputFlags are shared by scan and search.
type outputFlags struct {
	direction string
	output    string
	plot      string
	html      string
	save      bool
	json      bool
}

func (o *outputFlags) register(fs *pflag.FlagSet) {
	fs.Int("grid", config.DefaultGridSize, "grid resolution N (N×N shifts)")
	fs.Int("top", config.DefaultTopPairs, "pairs reported per direction (0 for all)")
	fs.Int("workers", 0, "rows scanned in parallel (default GOMAXPROCS)")
	fs.Float64("interlayer-distance", 0, "interlayer gap in Å (default estimated from the composition)")
	fs.StringVar(&o.direction, "polar-direction", "", "only report one direction: x, y, z, xy or general")
	fs.StringVarP(&o.output, "output", "o", "", "write the JSON record to this file")
	fs.StringVar(&o.plot, "plot", "", "write a PNG polarisation map to this file")
	fs.StringVar(&o.html, "html", "", "write an interactive HTML polarisation map to this file")
	fs.BoolVar(&o.save, "save", false, "store the run in the results database")
	fs.BoolVar(&o.json, "json", false, "print the JSON record instead of the text summary")
}

func newScanCmd(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "scan LAYER_GROUP",
		Short: "Scan the stackings of a layer group without a material",
		Example: "  sympol2d scan p6mm --grid 30\n" +
			"  sympol2d scan p-6m2 --polar-direction z --top 0 --json",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.scanAndReport(cmd, args[0], nil, &out)
			return err
		},
	}
	out.register(cmd.Flags())
	return cmd
}

// scanAndReport scans label, prints the report and writes every requested
// artefact. m may be nil.
func (a *app) scanAndReport(cmd *cobra.Command, label string, m *material.Material, out *outputFlags) (*report.Record, error) {
	var direction stacking.PolarLabel
	if out.direction != "" {
		d, err := stacking.ParseDirection(out.direction)
		if err != nil {
			return nil, err
		}
		direction = d
	}
	cat, err := a.catalog()
	if err != nil {
		return nil, err
	}

	scanner := stacking.NewScanner(a.cfg.ScannerOptions())
	res, err := scanner.Scan(cmd.Context(), label, a.cfg.GetGridSize(), cat)
	if err != nil {
		return nil, err
	}

	distance, set := a.cfg.GetInterlayerDistance()
	if !set {
		distance = 0
		if m != nil {
			distance = material.EstimateInterlayerDistance(m.Numbers)
		}
	}
	rec := report.NewRecord(res, report.Options{
		Material:           m,
		InterlayerDistance: distance,
		Top:                a.cfg.GetTopPairs(),
		Direction:          direction,
	})

	if out.save {
		if err := a.saveRun(cmd, rec); err != nil {
			return nil, err
		}
	}
	if err := a.writeArtefacts(cmd, res, rec, out); err != nil {
		return nil, err
	}

	w := cmd.OutOrStdout()
	if out.json {
		return rec, report.WriteJSON(w, rec)
	}
	return rec, report.WriteText(w, rec)
}

func (a *app) saveRun(cmd *cobra.Command, rec *report.Record) error {
	results, err := db.NewDB(a.cfg.GetResultsDB())
	if err != nil {
		return err
	}
	defer results.Close()
	id, err := results.SaveRun(rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s to %s\n", id, results.Path())
	return nil
}

func (a *app) writeArtefacts(cmd *cobra.Command, res *stacking.ScanResult, rec *report.Record, out *outputFlags) error {
	artefacts := []struct {
		path   string
		render func(io.Writer) error
	}{
		{out.output, func(w io.Writer) error { return report.WriteJSON(w, rec) }},
		{out.plot, func(w io.Writer) error { return report.WriteMapPNG(w, res, mapPNGSize) }},
		{out.html, func(w io.Writer) error { return report.WriteMapHTML(w, res) }},
	}
	for _, art := range artefacts {
		if art.path == "" {
			continue
		}
		path, err := writeFile(art.path, art.render)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	}
	return nil
}

// writeFile writes one artefact atomically through fsutil.
func writeFile(path string, render func(io.Writer) error) (string, error) {
	return fsutil.NewWriter(fsutil.OS(), filepath.Dir(path)).Write(filepath.Base(path), render)
}
