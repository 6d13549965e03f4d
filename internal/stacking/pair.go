package stacking

import (
	"fmt"
	"math"

	"github.com/banshee-data/sympol2d/internal/symmetry"
)

func (g *grid) stacking(cls *Classifier, i, j int) Stacking {
	mask, label := g.at(i, j)
	preserved, broken := cls.Split(mask)
	return Stacking{
		Tau:       tauAt(i, j, g.n),
		I:         i,
		J:         j,
		Label:     label,
		Preserved: preserved,
		Broken:    broken,
		Nearest:   [2]Fraction{nearestFraction(i, g.n), nearestFraction(j, g.n)},
	}
}

// pairUp walks the grid once, matching every polar point with its
// inversion partner. A pair is kept only when both members carry the same
// label and the same broken set. Self-inverse points and rejected points
// are counted under their own label.
func pairUp(g *grid, cls *Classifier) (map[PolarLabel][]Pair, map[PolarLabel]int) {
	pairs := make(map[PolarLabel][]Pair, len(Directions))
	discarded := make(map[PolarLabel]int, len(Directions))
	n := g.n
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			mask, label := g.at(i, j)
			if !label.Polar() {
				continue
			}
			pi, pj := partner(i, j, n)
			if pi == i && pj == j {
				discarded[label]++
				continue
			}
			// Visit each unordered pair once, from its AB member.
			if pi < i || (pi == i && pj < j) {
				continue
			}
			pmask, plabel := g.at(pi, pj)
			if plabel != label || pmask != mask {
				discarded[label]++
				if plabel.Polar() {
					discarded[plabel]++
				}
				continue
			}
			pairs[label] = append(pairs[label], Pair{
				AB: g.stacking(cls, i, j),
				BA: g.stacking(cls, pi, pj),
			})
		}
	}
	for _, ps := range pairs {
		rankPairs(ps)
	}
	return pairs, discarded
}

// findAA returns the non-polar point nearest τ = 0 under the minimum-image
// metric. τ = 0 is grid node (0, 0) and is always checked first.
func findAA(g *grid, cls *Classifier) (*Stacking, bool, string) {
	if _, label := g.at(0, 0); label == NonPolar {
		s := g.stacking(cls, 0, 0)
		return &s, true, ""
	}
	_, origin := g.at(0, 0)

	bestI, bestJ, bestD := -1, -1, math.Inf(1)
	for i := 0; i < g.n; i++ {
		for j := 0; j < g.n; j++ {
			if _, label := g.at(i, j); label != NonPolar {
				continue
			}
			tau := tauAt(i, j, g.n)
			d := math.Hypot(symmetry.MinimumImage(tau[0]), symmetry.MinimumImage(tau[1]))
			if d < bestD {
				bestI, bestJ, bestD = i, j, d
			}
		}
	}
	if bestI < 0 {
		return nil, false, fmt.Sprintf("τ = [0, 0] is %s and no grid point is non-polar", origin)
	}
	s := g.stacking(cls, bestI, bestJ)
	return &s, false, fmt.Sprintf("τ = [0, 0] is %s; using nearest non-polar grid point %v", origin, s.Tau)
}
