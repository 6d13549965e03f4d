package symmetry

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// matrixTol bounds the orthogonality and degeneracy checks done when a
// catalog is built. It is unrelated to the preservation tolerance, which
// always comes from the caller.
const matrixTol = 1e-9

var sqrt3half = math.Sqrt(3) / 2

// Operation is one in-plane symmetry operation: a name and its 2×2 linear
// part. The zero value is not usable; build one with NewOperation or
// Table.Resolve. Operations are immutable and safe to share.
type Operation struct {
	name string
	r    *mat.Dense
	sum  *mat.Dense // I + R
}

// NewOperation builds an operation from a 2×2 matrix. The matrix is copied.
func NewOperation(name string, r mat.Matrix) (Operation, error) {
	if strings.TrimSpace(name) == "" {
		return Operation{}, fmt.Errorf("%w: empty operation name", ErrInvalidCatalog)
	}
	if rows, cols := r.Dims(); rows != 2 || cols != 2 {
		return Operation{}, fmt.Errorf("%w: operation %s is %dx%d, want 2x2", ErrInvalidCatalog, name, rows, cols)
	}
	m := mat.DenseCopyOf(r)
	sum := mat.NewDense(2, 2, nil)
	sum.Add(identity(), m)
	return Operation{name: name, r: m, sum: sum}, nil
}

func identity() *mat.Dense {
	return mat.NewDense(2, 2, []float64{1, 0, 0, 1})
}

func denseFromRows(rows [][]float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{rows[0][0], rows[0][1], rows[1][0], rows[1][1]})
}

// Name returns the operation identifier, e.g. "C6" or "Mx".
func (o Operation) Name() string { return o.name }

// Matrix returns a copy of the linear part.
func (o Operation) Matrix() *mat.Dense { return mat.DenseCopyOf(o.r) }

// Orthogonal reports whether RᵀR = I within matrixTol.
func (o Operation) Orthogonal() bool {
	var p mat.Dense
	p.Mul(o.r.T(), o.r)
	return mat.EqualApprox(&p, identity(), matrixTol)
}

// Degenerate reports whether I + R vanishes, in which case every shift
// preserves the operation.
func (o Operation) Degenerate() bool {
	return mat.Norm(o.sum, math.Inf(1)) <= matrixTol
}

// Shift writes (I + R)·tau into dst. dst must be a length-2 vector.
func (o Operation) Shift(dst *mat.VecDense, tau mat.Vector) {
	dst.MulVec(o.sum, tau)
}

func (o Operation) String() string {
	return fmt.Sprintf("%s%v", o.name, mat.Formatted(o.r, mat.Squeeze()))
}

// Table maps base operation names to their linear parts. Powers such as
// "C3^2" or "C6⁵" are resolved from their base entry on demand.
type Table map[string]*mat.Dense

// BaseTable returns a fresh copy of the built-in operation table. Mirrors
// follow the convention that Mx fixes x and reflects y, My fixes y and
// reflects x; Mxy and Mxy- are the two diagonal mirrors.
func BaseTable() Table {
	return Table{
		"E":    mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		"C2":   mat.NewDense(2, 2, []float64{-1, 0, 0, -1}),
		"C3":   mat.NewDense(2, 2, []float64{-0.5, -sqrt3half, sqrt3half, -0.5}),
		"C4":   mat.NewDense(2, 2, []float64{0, -1, 1, 0}),
		"C6":   mat.NewDense(2, 2, []float64{0.5, -sqrt3half, sqrt3half, 0.5}),
		"Mx":   mat.NewDense(2, 2, []float64{1, 0, 0, -1}),
		"My":   mat.NewDense(2, 2, []float64{-1, 0, 0, 1}),
		"Mxy":  mat.NewDense(2, 2, []float64{0, 1, 1, 0}),
		"Mxy-": mat.NewDense(2, 2, []float64{0, -1, -1, 0}),
	}
}

// Names returns the base names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the operation for name, computing matrix powers for
// "base^n" or superscript forms. The returned operation keeps name verbatim.
func (t Table) Resolve(name string) (Operation, error) {
	if m, ok := t[name]; ok {
		return NewOperation(name, m)
	}
	baseName, power, ok := splitPower(name)
	if !ok {
		return Operation{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownOperation, name, strings.Join(t.Names(), ", "))
	}
	m, ok := t[baseName]
	if !ok {
		return Operation{}, fmt.Errorf("%w: %q (base %q, known: %s)", ErrUnknownOperation, name, baseName, strings.Join(t.Names(), ", "))
	}
	var p mat.Dense
	p.Pow(m, power)
	return NewOperation(name, &p)
}

var superscripts = map[rune]int{
	'⁰': 0, '¹': 1, '²': 2, '³': 3, '⁴': 4, '⁵': 5, '⁶': 6, '⁷': 7, '⁸': 8, '⁹': 9,
}

// splitPower parses "C3^2" and "C3²" into ("C3", 2).
func splitPower(name string) (string, int, bool) {
	if i := strings.LastIndex(name, "^"); i > 0 {
		n, err := strconv.Atoi(name[i+1:])
		if err != nil || n < 1 {
			return "", 0, false
		}
		return name[:i], n, true
	}

	runes := []rune(name)
	end := len(runes)
	for end > 0 {
		if _, ok := superscripts[runes[end-1]]; !ok {
			break
		}
		end--
	}
	if end == len(runes) || end == 0 {
		return "", 0, false
	}
	n := 0
	for _, r := range runes[end:] {
		n = n*10 + superscripts[r]
	}
	if n < 1 {
		return "", 0, false
	}
	return string(runes[:end]), n, true
}
