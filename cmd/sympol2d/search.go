package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/banshee-data/sympol2d/internal/config"
	"github.com/banshee-data/sympol2d/internal/fsutil"
	"github.com/banshee-data/sympol2d/internal/material"
	"github.com/banshee-data/sympol2d/internal/monitoring"
	"github.com/banshee-data/sympol2d/internal/poscar"
	"github.com/banshee-data/sympol2d/internal/report"
)

// maxCandidates bounds the materials listed when a formula is ambiguous.
const maxCandidates = 50

func newSearchCmd(a *app) *cobra.Command {
	var (
		out        outputFlags
		uid        string
		formula    string
		autoSelect bool
		structures string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Scan the stackings of a c2db material",
		Example: "  sympol2d search --uid 1MoS2-1\n" +
			"  sympol2d search --formula MoS2 --auto-select --structures out/ --plot map.png",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (uid == "") == (formula == "") {
				return errors.New("exactly one of --uid or --formula is required")
			}
			mdb, err := material.Open(a.cfg.GetDatabase())
			if err != nil {
				return err
			}
			defer mdb.Close()

			m, err := resolveMaterial(cmd.ErrOrStderr(), mdb, uid, formula, autoSelect)
			if err != nil {
				return err
			}
			monitoring.Logf("scanning %v", m)

			rec, err := a.scanAndReport(cmd, m.LayerGroup, m, &out)
			if err != nil {
				return err
			}
			if structures == "" {
				return nil
			}
			n, err := writeStructures(structures, m, rec, a.cfg.GetVacuum())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d structures to %s\n", n, structures)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&uid, "uid", "", "c2db material uid, e.g. 1MoS2-1")
	f.StringVar(&formula, "formula", "", "formula to look up")
	f.BoolVar(&autoSelect, "auto-select", false, "take the first match when --formula is ambiguous")
	f.StringVar(&structures, "structures", "", "write POSCAR files for the reported stackings to this directory")
	f.Float64("vacuum", config.DefaultVacuum, "vacuum above and below the bilayer in Å")
	out.register(f)
	return cmd
}

// resolveMaterial finds the material named by uid or formula. An
// ambiguous formula lists the candidates on w and fails unless autoSelect
// is set.
func resolveMaterial(w io.Writer, mdb *material.DB, uid, formula string, autoSelect bool) (*material.Material, error) {
	if uid != "" {
		return mdb.MaterialByUID(uid)
	}
	hits, err := mdb.Search(formula, "", maxCandidates)
	if err != nil {
		return nil, err
	}
	switch {
	case len(hits) == 0:
		return nil, fmt.Errorf("%w: no material matches %q", material.ErrMaterialNotFound, formula)
	case len(hits) > 1 && !autoSelect:
		fmt.Fprintf(w, "%d materials match %q:\n", len(hits), formula)
		for _, h := range hits {
			fmt.Fprintf(w, "  %-16s %s\n", h.UID, h.LayerGroup)
		}
		return nil, fmt.Errorf("formula %q is ambiguous: pass --uid or --auto-select", formula)
	case len(hits) > 1:
		monitoring.Logf("%d materials match %q, using %s", len(hits), formula, hits[0].UID)
	}
	return mdb.MaterialByUID(hits[0].UID)
}

// writeStructures writes the monolayer and one bilayer POSCAR per stacking
// in rec under dir, returning the number of files written.
func writeStructures(dir string, m *material.Material, rec *report.Record, vacuum float64) (int, error) {
	mono, err := poscar.FromMaterial(m)
	if err != nil {
		return 0, err
	}
	w := fsutil.NewWriter(fsutil.OS(), dir)
	prefix := fsutil.SafeName(m.UID)

	if _, err := w.Write(prefix+"_monolayer.vasp", func(out io.Writer) error {
		return poscar.Write(out, mono)
	}); err != nil {
		return 0, err
	}
	n := 1

	names := make([]string, 0, len(rec.Stackings))
	for name := range rec.Stackings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		bi, err := poscar.BuildBilayer(mono, rec.Stackings[name].Tau, rec.InterlayerDistance, vacuum)
		if err != nil {
			return n, fmt.Errorf("stacking %s: %w", name, err)
		}
		bi.Comment = fmt.Sprintf("%s %s bilayer", m.Formula, name)
		if _, err := w.Write(prefix+"_"+fsutil.SafeName(name)+".vasp", func(out io.Writer) error {
			return poscar.Write(out, bi)
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
