package stacking

import (
	"fmt"
	"strings"
)

// PolarLabel is the polarization class of a stacking.
type PolarLabel string

const (
	NonPolar     PolarLabel = "non-polar"
	XPolar       PolarLabel = "x-polar"
	YPolar       PolarLabel = "y-polar"
	ZPolar       PolarLabel = "z-polar"
	XYPolar      PolarLabel = "xy-polar"
	GeneralPolar PolarLabel = "general-polar"
)

// Directions lists the polar labels in report order.
var Directions = []PolarLabel{XPolar, YPolar, ZPolar, XYPolar, GeneralPolar}

// Polar reports whether l names a polar class.
func (l PolarLabel) Polar() bool { return l != NonPolar && l != "" }

// Short returns the direction without the "-polar" suffix, e.g. "x".
func (l PolarLabel) Short() string {
	switch l {
	case XPolar:
		return "x"
	case YPolar:
		return "y"
	case ZPolar:
		return "z"
	case XYPolar:
		return "xy"
	case GeneralPolar:
		return "general"
	}
	return string(l)
}

// ParseDirection accepts a polar label in long ("x-polar") or short ("x")
// form, case-insensitively.
func ParseDirection(s string) (PolarLabel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range Directions {
		if s == string(d) || s == d.Short() {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Vector is a fractional in-plane shift (τx, τy), each component in [0, 1).
type Vector [2]float64

func (v Vector) String() string { return fmt.Sprintf("[%.4f, %.4f]", v[0], v[1]) }

// Fraction is the simple fraction a coordinate was matched to during
// ranking. Den is NoFraction when no member of the set is within half a
// grid step.
type Fraction struct {
	Num, Den int
	// Steps is the distance to Num/Den in grid steps.
	Steps float64
}

// NoFraction is the denominator recorded for coordinates that match no
// simple fraction. It sorts after every real denominator.
const NoFraction = 1000

func (f Fraction) String() string {
	if f.Den == NoFraction {
		return "~"
	}
	if f.Den == 1 {
		return fmt.Sprintf("%d", f.Num)
	}
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// Stacking is one classified grid point.
type Stacking struct {
	Tau Vector `json:"tau"`
	// I and J are the grid indices: Tau = (I/N, J/N).
	I         int         `json:"i"`
	J         int         `json:"j"`
	Label     PolarLabel  `json:"label"`
	Preserved []string    `json:"preserved"`
	Broken    []string    `json:"broken"`
	Nearest   [2]Fraction `json:"-"`
}

// Pair is an inversion-related AB/BA couple. AB is the lexicographically
// smaller grid point; BA.Tau = (1 − AB.Tau) mod 1.
type Pair struct {
	AB Stacking `json:"ab"`
	BA Stacking `json:"ba"`
}

// Label is the shared polar label of both members.
func (p Pair) Label() PolarLabel { return p.AB.Label }

// ScanResult is the complete outcome of one scan. It is never mutated after
// Scan returns.
type ScanResult struct {
	LayerGroup string
	GridSize   int
	// Tolerance is the absolute preservation tolerance in fractional units.
	Tolerance  float64
	Operations []string

	// AA is the non-polar reference stacking nearest τ = 0, nil only when
	// no grid point is non-polar. AAExact is false when τ = 0 itself was
	// polar and a neighbour was substituted; AACaveat then explains why.
	AA       *Stacking
	AAExact  bool
	AACaveat string

	Pairs map[PolarLabel][]Pair
	// Labels holds the label of every grid point, row-major: index
	// i*GridSize+j belongs to τ = (i/N, j/N).
	Labels []PolarLabel
	// Discarded counts polar grid points per label that could not be
	// paired: self-inverse points and points whose partner disagrees.
	Discarded map[PolarLabel]int

	// Advisories holds non-fatal findings, currently one
	// *symmetry.DegenerateOperationError per degenerate operation.
	Advisories []error

	// ZSignFlip is the catalog's expectation that Pz reverses between AB
	// and BA. Nil when the provider only supplies operation lists.
	ZSignFlip *bool
}

// LabelAt returns the label of grid point (i, j).
func (r *ScanResult) LabelAt(i, j int) PolarLabel { return r.Labels[i*r.GridSize+j] }

// LabelCounts tallies grid points per label.
func (r *ScanResult) LabelCounts() map[PolarLabel]int {
	out := make(map[PolarLabel]int)
	for _, l := range r.Labels {
		out[l]++
	}
	return out
}

// PairCount is the total number of pairs over all directions.
func (r *ScanResult) PairCount() int {
	n := 0
	for _, ps := range r.Pairs {
		n += len(ps)
	}
	return n
}

// Top returns at most n leading pairs for label; n <= 0 means all.
func (r *ScanResult) Top(label PolarLabel, n int) []Pair {
	ps := r.Pairs[label]
	if n > 0 && len(ps) > n {
		ps = ps[:n]
	}
	return ps
}
