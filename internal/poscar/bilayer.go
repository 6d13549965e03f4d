package poscar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// BuildBilayer stacks two copies of mono along c. The bottom layer sits
// vacuum Å above the cell floor; the top layer is shifted in plane by tau
// and starts gap Å above the bottom layer's highest atom. The new c
// length is 2·vacuum + 2·thickness + gap, so the vacuum between periodic
// images is 2·vacuum.
func BuildBilayer(mono *Structure, tau [2]float64, gap, vacuum float64) (*Structure, error) {
	if len(mono.Atoms) == 0 {
		return nil, fmt.Errorf("monolayer has no atoms")
	}
	if gap <= 0 || vacuum < 0 {
		return nil, fmt.Errorf("invalid geometry: gap %.3f Å, vacuum %.3f Å", gap, vacuum)
	}
	c := mono.CLength()
	if c == 0 {
		return nil, fmt.Errorf("monolayer c vector has zero length")
	}

	zmin, zmax := math.Inf(1), math.Inf(-1)
	for _, a := range mono.Atoms {
		zmin = math.Min(zmin, a.Frac[2])
		zmax = math.Max(zmax, a.Frac[2])
	}
	thick := (zmax - zmin) * c
	newC := 2*vacuum + 2*thick + gap

	lat := mat.DenseCopyOf(mono.Lattice)
	cRow := mat.NewVecDense(3, nil)
	cRow.ScaleVec(newC/c, mono.Lattice.RowView(2))
	lat.SetRow(2, cRow.RawVector().Data)

	out := &Structure{
		Comment: fmt.Sprintf("%s bilayer tau=[%.6f, %.6f] d=%.3f", mono.Formula(), tau[0], tau[1], gap),
		Lattice: lat,
		Atoms:   make([]Atom, 0, 2*len(mono.Atoms)),
	}
	top := vacuum + thick + gap
	for _, a := range mono.Atoms {
		dz := (a.Frac[2] - zmin) * c
		out.Atoms = append(out.Atoms, Atom{
			Symbol: a.Symbol,
			Frac:   [3]float64{wrap01(a.Frac[0]), wrap01(a.Frac[1]), (vacuum + dz) / newC},
		})
	}
	for _, a := range mono.Atoms {
		dz := (a.Frac[2] - zmin) * c
		out.Atoms = append(out.Atoms, Atom{
			Symbol: a.Symbol,
			Frac:   [3]float64{wrap01(a.Frac[0] + tau[0]), wrap01(a.Frac[1] + tau[1]), (top + dz) / newC},
		})
	}
	return out, nil
}
