package material

import "fmt"

// DefaultInterlayerDistance is the vdW gap in Å used when none is given.
const DefaultInterlayerDistance = 3.1

// symbols is indexed by atomic number.
var symbols = [...]string{
	"X",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd",
	"In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba", "La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy",
	"Ho", "Er", "Tm", "Yb", "Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt",
	"Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
	"Fr", "Ra", "Ac", "Th", "Pa", "U",
}

var numbersBySymbol = func() map[string]int {
	m := make(map[string]int, len(symbols))
	for z, s := range symbols {
		if z > 0 {
			m[s] = z
		}
	}
	return m
}()

// Symbol returns the element symbol for atomic number z.
func Symbol(z int) string {
	if z <= 0 || z >= len(symbols) {
		return fmt.Sprintf("Z%d", z)
	}
	return symbols[z]
}

// AtomicNumber returns the atomic number for an element symbol.
func AtomicNumber(sym string) (int, bool) {
	z, ok := numbersBySymbol[sym]
	return z, ok
}

// EstimateInterlayerDistance returns the interlayer gap for a bilayer of
// the given composition. Every vdW family observed in c2db relaxes to
// roughly the same gap, so the estimate is DefaultInterlayerDistance.
func EstimateInterlayerDistance(numbers []int) float64 {
	return DefaultInterlayerDistance
}
