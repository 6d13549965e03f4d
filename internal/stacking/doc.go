// Package stacking scans interlayer shifts of a homobilayer and classifies
// each one as non-polar or polar along x, y, z, xy or a general direction.
//
// A scan samples τ = (i/N, j/N) for 0 ≤ i, j < N, runs the symmetry
// preservation test for every catalog operation at every point, labels each
// point with the ordered rule table in classify.go, then matches every polar
// point with its inversion partner τ' = (1 − τ) mod 1. Pairs are ranked so
// that shifts close to simple fractions such as 1/3 or 1/2 come first.
//
// The grid loop is the only O(N²) pass. Rows are scanned in parallel; the
// result does not depend on worker count or scheduling.
package stacking
