// Package poscar reads and writes VASP5 POSCAR files and builds rigid
// bilayers from a monolayer.
package poscar

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/sympol2d/internal/material"
)

// ErrMalformed marks POSCAR input that cannot be parsed.
var ErrMalformed = errors.New("malformed POSCAR")

// Atom is one site in fractional coordinates.
type Atom struct {
	Symbol string
	Frac   [3]float64
}

// Structure is a periodic cell. Lattice rows are a, b and c in Å.
type Structure struct {
	Comment string
	Lattice *mat.Dense
	Atoms   []Atom
}

// Species returns element symbols in order of first appearance with their
// counts.
func (s *Structure) Species() ([]string, []int) {
	var symbols []string
	idx := map[string]int{}
	var counts []int
	for _, a := range s.Atoms {
		k, ok := idx[a.Symbol]
		if !ok {
			k = len(symbols)
			idx[a.Symbol] = k
			symbols = append(symbols, a.Symbol)
			counts = append(counts, 0)
		}
		counts[k]++
	}
	return symbols, counts
}

// Formula is the species/count string, e.g. "MoS2" or "Mo2S4".
func (s *Structure) Formula() string {
	symbols, counts := s.Species()
	var b strings.Builder
	for i, sym := range symbols {
		b.WriteString(sym)
		if counts[i] > 1 {
			b.WriteString(strconv.Itoa(counts[i]))
		}
	}
	return b.String()
}

// CLength is the length of the c lattice vector in Å.
func (s *Structure) CLength() float64 {
	return math.Sqrt(mat.Dot(s.Lattice.RowView(2), s.Lattice.RowView(2)))
}

func wrap01(x float64) float64 {
	x -= math.Floor(x)
	if x >= 1 {
		x = 0
	}
	return x
}

// FromMaterial converts a c2db material's Cartesian positions into a
// fractional-coordinate structure. In-plane coordinates are wrapped into
// [0, 1); z is left as is.
func FromMaterial(m *material.Material) (*Structure, error) {
	var inv mat.Dense
	if err := inv.Inverse(m.Cell); err != nil {
		return nil, fmt.Errorf("material %s: singular cell: %w", m.UID, err)
	}
	s := &Structure{
		Comment: m.Formula,
		Lattice: mat.DenseCopyOf(m.Cell),
		Atoms:   make([]Atom, len(m.Positions)),
	}
	for i, p := range m.Positions {
		var f mat.VecDense
		// Row vector r = f·L, so f = r·L⁻¹ = (L⁻ᵀ)·r.
		f.MulVec(inv.T(), mat.NewVecDense(3, []float64{p[0], p[1], p[2]}))
		s.Atoms[i] = Atom{
			Symbol: material.Symbol(m.Numbers[i]),
			Frac:   [3]float64{wrap01(f.AtVec(0)), wrap01(f.AtVec(1)), f.AtVec(2)},
		}
	}
	return s, nil
}
