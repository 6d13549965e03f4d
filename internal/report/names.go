package report

import (
	"fmt"
	"sort"

	"github.com/banshee-data/sympol2d/internal/stacking"
)

// Representative is a pair with the names it is reported under.
type Representative struct {
	Name    string
	Partner string
	Pair    stacking.Pair
}

// Representatives names every pair of res, ranked across all directions.
// The leading pair is AB/BA. A pair whose two coordinates sit on the same
// simple fraction p/q (q > 1) is named after it, e.g. AB_1_3/BA_2_3; the
// rest are AB<k>/BA<k> with k the overall rank counted from 1.
func Representatives(res *stacking.ScanResult) []Representative {
	var all []stacking.Pair
	for _, dir := range stacking.Directions {
		all = append(all, res.Pairs[dir]...)
	}
	sort.Slice(all, func(a, b int) bool { return stacking.RankLess(all[a], all[b]) })

	reps := make([]Representative, len(all))
	for k, p := range all {
		reps[k].Pair = p
		switch ab, ba := diagonalFraction(p.AB), diagonalFraction(p.BA); {
		case k == 0:
			reps[k].Name, reps[k].Partner = "AB", "BA"
		case ab != "" && ba != "":
			reps[k].Name, reps[k].Partner = "AB_"+ab, "BA_"+ba
		default:
			reps[k].Name = fmt.Sprintf("AB%d", k+1)
			reps[k].Partner = fmt.Sprintf("BA%d", k+1)
		}
	}
	return reps
}

// diagonalFraction returns "p_q" when both coordinates of s are within
// half a grid step of the same fraction p/q with q > 1. The strict bound
// leaves at most one grid node per fraction, so names never collide.
func diagonalFraction(s stacking.Stacking) string {
	a, b := s.Nearest[0], s.Nearest[1]
	if a.Den != b.Den || a.Num != b.Num || a.Den <= 1 || a.Den == stacking.NoFraction {
		return ""
	}
	if a.Steps >= 0.5 || b.Steps >= 0.5 {
		return ""
	}
	return fmt.Sprintf("%d_%d", a.Num, a.Den)
}
