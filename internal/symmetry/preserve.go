package symmetry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MaxOperations is the largest catalog entry a Tester can evaluate; the
// per-shift result is a bit mask.
const MaxOperations = 64

// MinimumImage maps a fractional coordinate to its representative in
// (−½, ½]. Shifts that differ by a lattice vector share one representative,
// and the representatives of τ and 1−τ are negatives of each other away
// from the ½ boundary.
func MinimumImage(x float64) float64 {
	c := x - math.Floor(x)
	if c > 0.5 {
		c--
	}
	return c
}

func nearInteger(x, tol float64) bool {
	return math.Abs(x-math.Round(x)) <= tol
}

// Preserved reports whether shifting the top layer by tau keeps op as a
// symmetry of the bilayer: (I + R)·τ must be an integer vector to within
// tol. tol is absolute in fractional units and should be derived from the
// grid spacing by the caller.
func Preserved(op Operation, tau [2]float64, tol float64) bool {
	in := mat.NewVecDense(2, []float64{MinimumImage(tau[0]), MinimumImage(tau[1])})
	var v mat.VecDense
	op.Shift(&v, in)
	return nearInteger(v.AtVec(0), tol) && nearInteger(v.AtVec(1), tol)
}

// Tester runs the preservation test for a fixed operation list, reusing its
// vector buffers between shifts. A Tester is not safe for concurrent use;
// give each goroutine its own.
type Tester struct {
	ops     []Operation
	tol     float64
	in, out *mat.VecDense
}

// NewTester returns a Tester for ops. Callers must keep len(ops) within
// MaxOperations; Catalog construction already enforces it.
func NewTester(ops []Operation, tol float64) *Tester {
	return &Tester{
		ops: ops,
		tol: tol,
		in:  mat.NewVecDense(2, nil),
		out: mat.NewVecDense(2, nil),
	}
}

// Mask returns a bit set whose bit k is 1 when ops[k] is preserved by tau.
func (t *Tester) Mask(tau [2]float64) uint64 {
	t.in.SetVec(0, MinimumImage(tau[0]))
	t.in.SetVec(1, MinimumImage(tau[1]))
	var mask uint64
	for k, op := range t.ops {
		op.Shift(t.out, t.in)
		if nearInteger(t.out.AtVec(0), t.tol) && nearInteger(t.out.AtVec(1), t.tol) {
			mask |= 1 << uint(k)
		}
	}
	return mask
}
