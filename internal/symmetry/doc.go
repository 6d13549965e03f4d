// Package symmetry owns the layer-group operation table and the
// preservation test for interlayer shifts.
//
// Responsibilities: 2×2 linear parts of in-plane operations (identity,
// rotations, mirrors), the label → ordered operation catalog, catalog
// validation at load time, and the integer-solvability test
// (I + R)·τ ∈ Z² that decides whether a shift τ preserves an operation R.
// Key types: Operation, LayerGroup, Catalog, Provider, GroupProvider.
//
// Matrices act on Cartesian-like fractional in-plane coordinates and must be
// orthogonal. Catalogs are immutable once built; the scanner receives them
// through the Provider interface and never mutates them. A Catalog is also a
// GroupProvider, which lets the scanner carry each group's z-sign-flip
// expectation into its result.
//
// Operations whose (I + R) is the zero matrix (R = −I, the in-plane C2) are
// degenerate: the test always reports them preserved, so they can never
// signal polarity on their own. Degenerate reports them so callers can raise
// an advisory.
package symmetry
