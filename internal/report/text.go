package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/sympol2d/internal/stacking"
)

const rule = "============================================================"

// WriteText renders rec as the human-readable scan summary: header, AA
// stacking, then the kept pairs of each direction in rank order.
func WriteText(w io.Writer, rec *Record) error {
	var b strings.Builder

	if m := rec.Material; m != nil {
		fmt.Fprintf(&b, "Material: %s (%s), %d atoms\n", m.Formula, m.UID, m.NAtoms)
	}
	fmt.Fprintf(&b, "Layer group: %s (%d operations)\n", rec.LayerGroup, len(rec.Operations))
	fmt.Fprintf(&b, "Grid: %dx%d, tolerance %.6f\n", rec.GridSize, rec.GridSize, rec.Tolerance)
	if rec.InterlayerDistance > 0 {
		fmt.Fprintf(&b, "Interlayer distance: %.2f Å\n", rec.InterlayerDistance)
	}
	if rec.ZSignFlipExpected != nil {
		if *rec.ZSignFlipExpected {
			b.WriteString("AB and BA are related by inversion: Pz flips sign\n")
		} else {
			b.WriteString("AB and BA are related by C2z: Pz keeps its sign\n")
		}
	}

	fmt.Fprintf(&b, "\n%s\nSTACKING CONFIGURATIONS (%d pairs)\n%s\n", rule, rec.TotalPairs(), rule)

	if aa := rec.AA; aa != nil {
		b.WriteString("\nAA stacking (non-polar):\n")
		fmt.Fprintf(&b, "  τ = %v\n", aa.Tau)
		fmt.Fprintf(&b, "  Preserved symmetries: %s\n", strings.Join(aa.Preserved, ", "))
	} else {
		b.WriteString("\nNo non-polar stacking found.\n")
	}
	if rec.AACaveat != "" {
		fmt.Fprintf(&b, "  Note: %s\n", rec.AACaveat)
	}

	for _, dir := range stacking.Directions {
		short := dir.Short()
		if rec.Direction != "" && rec.Direction != short {
			continue
		}
		total := rec.PairCounts[short]
		if total == 0 {
			if rec.Direction != "" {
				fmt.Fprintf(&b, "\nNo %s pairs found.\n", dir)
			}
			continue
		}
		fmt.Fprintf(&b, "\n%s PAIRS (%d found):\n", strings.ToUpper(string(dir)), total)
		kept := rec.Pairs[short]
		for _, p := range kept {
			fmt.Fprintf(&b, "\n  Pair %d (%s/%s):\n", p.Rank, p.Name, p.Partner)
			fmt.Fprintf(&b, "    AB: τ = %v\n", p.TauAB)
			fmt.Fprintf(&b, "    BA: τ = %v\n", p.TauBA)
			fmt.Fprintf(&b, "    Broken symmetries: %s\n", strings.Join(p.Broken, ", "))
		}
		if more := total - len(kept); more > 0 {
			fmt.Fprintf(&b, "  ... and %d more %s pairs\n", more, dir)
		}
	}

	if len(rec.Discarded) > 0 {
		var parts []string
		for _, dir := range stacking.Directions {
			if n := rec.Discarded[dir.Short()]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", dir, n))
			}
		}
		fmt.Fprintf(&b, "\nUnpaired polar points: %s\n", strings.Join(parts, ", "))
	}
	for _, adv := range rec.Advisories {
		fmt.Fprintf(&b, "Advisory: %s\n", adv)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
