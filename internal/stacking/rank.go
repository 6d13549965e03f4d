package stacking

import (
	"math"
	"sort"
)

// simpleFractions is the canonical high-symmetry set, ordered by
// denominator so that equidistant matches resolve to the simpler fraction.
var simpleFractions = []struct{ num, den int }{
	{0, 1}, {1, 1},
	{1, 2},
	{1, 3}, {2, 3},
	{1, 4}, {3, 4},
	{1, 6}, {5, 6},
}

// matchWindow is how close, in grid steps, a coordinate must be to a
// fraction to match it. Half a step admits exactly the nearest grid
// node(s) to each fraction.
const matchWindow = 0.5

// nearestFraction matches grid index i of an n-point axis against the
// simple-fraction set.
func nearestFraction(i, n int) Fraction {
	best := Fraction{Den: NoFraction, Steps: math.Inf(1)}
	for _, f := range simpleFractions {
		steps := math.Abs(float64(i*f.den-f.num*n)) / float64(f.den)
		if steps > matchWindow {
			continue
		}
		if steps < best.Steps || (steps == best.Steps && f.den < best.Den) {
			best = Fraction{Num: f.num, Den: f.den, Steps: steps}
		}
	}
	if best.Den == NoFraction {
		best.Steps = 0
	}
	return best
}

// rankKey orders pairs: the larger of the two matched denominators first,
// then the smaller, then total distance from the fractions, then the AB
// grid indices. Unmatched coordinates carry NoFraction and sort last.
type rankKey struct {
	maxDen, minDen int
	steps          float64
	i, j           int
}

func keyOf(s Stacking) rankKey {
	a, b := s.Nearest[0], s.Nearest[1]
	k := rankKey{maxDen: a.Den, minDen: b.Den, steps: a.Steps + b.Steps, i: s.I, j: s.J}
	if k.minDen > k.maxDen {
		k.maxDen, k.minDen = k.minDen, k.maxDen
	}
	return k
}

func (k rankKey) less(o rankKey) bool {
	switch {
	case k.maxDen != o.maxDen:
		return k.maxDen < o.maxDen
	case k.minDen != o.minDen:
		return k.minDen < o.minDen
	case k.steps != o.steps:
		return k.steps < o.steps
	case k.i != o.i:
		return k.i < o.i
	}
	return k.j < o.j
}

// RankLess reports whether pair a ranks ahead of pair b. It is the order
// of every per-direction list in a ScanResult and also orders pairs drawn
// from different directions.
func RankLess(a, b Pair) bool { return keyOf(a.AB).less(keyOf(b.AB)) }

// rankPairs sorts ps in place. Keys are unique because AB grid indices
// are, so the order is total.
func rankPairs(ps []Pair) {
	sort.Slice(ps, func(a, b int) bool { return RankLess(ps[a], ps[b]) })
}
