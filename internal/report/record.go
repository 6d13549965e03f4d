// Package report renders scan results as JSON records, text summaries and
// polarisation maps.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/sympol2d/internal/material"
	"github.com/banshee-data/sympol2d/internal/stacking"
)

// MaterialInfo identifies the monolayer a scan was run for.
type MaterialInfo struct {
	UID        string `json:"uid"`
	Formula    string `json:"formula"`
	LayerGroup string `json:"layer_group"`
	NAtoms     int    `json:"natoms"`
}

// StackingEntry is one named stacking in a Record.
type StackingEntry struct {
	Tau       stacking.Vector     `json:"tau"`
	Label     stacking.PolarLabel `json:"label"`
	Preserved []string            `json:"preserved_symmetries"`
	Broken    []string            `json:"broken_symmetries"`
}

// PairEntry is one ranked AB/BA pair. Rank counts from 1 within its
// direction.
type PairEntry struct {
	Rank    int             `json:"rank"`
	Name    string          `json:"name"`
	Partner string          `json:"partner"`
	TauAB   stacking.Vector `json:"tau_ab"`
	TauBA   stacking.Vector `json:"tau_ba"`
	Broken  []string        `json:"broken_symmetries"`
}

// Record is the serialisable summary of a scan. Pairs and PairCounts are
// keyed by short direction ("x", "y", "z", "xy", "general"); GridCounts
// tallies every grid point, "non-polar" included.
type Record struct {
	RunID              string                   `json:"run_id,omitempty"`
	Material           *MaterialInfo            `json:"material,omitempty"`
	LayerGroup         string                   `json:"layer_group"`
	GridSize           int                      `json:"grid_size"`
	Tolerance          float64                  `json:"tolerance"`
	Operations         []string                 `json:"operations"`
	ZSignFlipExpected  *bool                    `json:"z_sign_flip_expected,omitempty"`
	InterlayerDistance float64                  `json:"interlayer_distance,omitempty"`
	Direction          string                   `json:"direction,omitempty"`
	AA                 *StackingEntry           `json:"aa,omitempty"`
	AAExact            bool                     `json:"aa_exact"`
	AACaveat           string                   `json:"aa_caveat,omitempty"`
	Stackings          map[string]StackingEntry `json:"stackings"`
	PairCounts         map[string]int           `json:"pair_counts"`
	GridCounts         map[string]int           `json:"grid_counts"`
	Pairs              map[string][]PairEntry   `json:"pairs"`
	Discarded          map[string]int           `json:"discarded,omitempty"`
	Advisories         []string                 `json:"advisories,omitempty"`
}

// Options controls what NewRecord keeps.
type Options struct {
	Material           *material.Material
	InterlayerDistance float64
	// Top bounds the pairs kept per direction; <= 0 keeps all.
	Top int
	// Direction restricts Pairs to one label; empty keeps every direction.
	Direction stacking.PolarLabel
}

// NewRecord summarises res. Stackings holds AA plus both members of every
// pair kept in Pairs, under their representative names.
func NewRecord(res *stacking.ScanResult, opts Options) *Record {
	rec := &Record{
		LayerGroup:         res.LayerGroup,
		GridSize:           res.GridSize,
		Tolerance:          res.Tolerance,
		Operations:         res.Operations,
		InterlayerDistance: opts.InterlayerDistance,
		AAExact:            res.AAExact,
		AACaveat:           res.AACaveat,
		Stackings:          make(map[string]StackingEntry),
		PairCounts:         make(map[string]int, len(stacking.Directions)),
		Pairs:              make(map[string][]PairEntry),
	}
	if m := opts.Material; m != nil {
		rec.Material = &MaterialInfo{UID: m.UID, Formula: m.Formula, LayerGroup: m.LayerGroup, NAtoms: m.NAtoms()}
	}
	if res.ZSignFlip != nil {
		flip := *res.ZSignFlip
		rec.ZSignFlipExpected = &flip
	}
	if opts.Direction != "" {
		rec.Direction = opts.Direction.Short()
	}
	if res.AA != nil {
		aa := entryOf(*res.AA)
		rec.AA = &aa
		rec.Stackings["AA"] = aa
	}

	names := make(map[[2]int]Representative)
	for _, r := range Representatives(res) {
		names[[2]int{r.Pair.AB.I, r.Pair.AB.J}] = r
	}
	for _, dir := range stacking.Directions {
		rec.PairCounts[dir.Short()] = len(res.Pairs[dir])
		if opts.Direction != "" && dir != opts.Direction {
			continue
		}
		for k, p := range res.Top(dir, opts.Top) {
			r := names[[2]int{p.AB.I, p.AB.J}]
			rec.Pairs[dir.Short()] = append(rec.Pairs[dir.Short()], PairEntry{
				Rank:    k + 1,
				Name:    r.Name,
				Partner: r.Partner,
				TauAB:   p.AB.Tau,
				TauBA:   p.BA.Tau,
				Broken:  p.AB.Broken,
			})
			rec.Stackings[r.Name] = entryOf(p.AB)
			rec.Stackings[r.Partner] = entryOf(p.BA)
		}
	}
	rec.GridCounts = make(map[string]int)
	for label, n := range res.LabelCounts() {
		rec.GridCounts[label.Short()] = n
	}
	for label, n := range res.Discarded {
		if n == 0 {
			continue
		}
		if rec.Discarded == nil {
			rec.Discarded = make(map[string]int)
		}
		rec.Discarded[label.Short()] = n
	}
	for _, adv := range res.Advisories {
		rec.Advisories = append(rec.Advisories, adv.Error())
	}
	return rec
}

func entryOf(s stacking.Stacking) StackingEntry {
	return StackingEntry{Tau: s.Tau, Label: s.Label, Preserved: s.Preserved, Broken: s.Broken}
}

// TotalPairs sums PairCounts.
func (r *Record) TotalPairs() int {
	n := 0
	for _, c := range r.PairCounts {
		n += c
	}
	return n
}

// WriteJSON writes rec as indented JSON.
func WriteJSON(w io.Writer, rec *Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return nil
}

// ReadJSON decodes a record written by WriteJSON.
func ReadJSON(r io.Reader) (*Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, nil
}
