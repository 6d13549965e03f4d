package poscar

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Read parses a VASP5 POSCAR: comment, scale, three lattice rows, species
// line, counts line, optional "Selective dynamics", then Direct or
// Cartesian coordinates. A negative scale is a target cell volume.
func Read(r io.Reader) (*Structure, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) < 8 {
		return nil, fmt.Errorf("%w: %d non-empty lines", ErrMalformed, len(lines))
	}

	scale, err := strconv.ParseFloat(strings.Fields(lines[1])[0], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: scale: %v", ErrMalformed, err)
	}
	lat := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		v, err := parseTriple(lines[2+i])
		if err != nil {
			return nil, fmt.Errorf("%w: lattice row %d: %v", ErrMalformed, i+1, err)
		}
		lat.SetRow(i, v[:])
	}
	if scale < 0 {
		scale = math.Cbrt(-scale / math.Abs(mat.Det(lat)))
	}
	lat.Scale(scale, lat)

	symbols := strings.Fields(lines[5])
	if _, err := strconv.Atoi(symbols[0]); err == nil {
		return nil, fmt.Errorf("%w: missing species line (VASP4 format)", ErrMalformed)
	}
	countFields := strings.Fields(lines[6])
	if len(countFields) != len(symbols) {
		return nil, fmt.Errorf("%w: %d species but %d counts", ErrMalformed, len(symbols), len(countFields))
	}
	var species []string
	for i, f := range countFields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: count %q", ErrMalformed, f)
		}
		for k := 0; k < n; k++ {
			species = append(species, symbols[i])
		}
	}

	mode := 7
	if strings.HasPrefix(strings.ToLower(lines[mode]), "s") {
		mode++
	}
	if mode >= len(lines) {
		return nil, fmt.Errorf("%w: missing coordinate mode", ErrMalformed)
	}
	m := strings.ToLower(lines[mode])
	cartesian := strings.HasPrefix(m, "c") || strings.HasPrefix(m, "k")
	if !cartesian && !strings.HasPrefix(m, "d") {
		return nil, fmt.Errorf("%w: coordinate mode %q", ErrMalformed, lines[mode])
	}
	start := mode + 1
	if len(lines)-start < len(species) {
		return nil, fmt.Errorf("%w: %d atoms declared, %d coordinate lines", ErrMalformed, len(species), len(lines)-start)
	}

	var inv mat.Dense
	if cartesian {
		if err := inv.Inverse(lat); err != nil {
			return nil, fmt.Errorf("%w: singular lattice: %v", ErrMalformed, err)
		}
	}

	s := &Structure{Comment: lines[0], Lattice: lat, Atoms: make([]Atom, len(species))}
	for i, sym := range species {
		v, err := parseTriple(lines[start+i])
		if err != nil {
			return nil, fmt.Errorf("%w: atom %d: %v", ErrMalformed, i+1, err)
		}
		if cartesian {
			var f mat.VecDense
			f.MulVec(inv.T(), mat.NewVecDense(3, []float64{v[0] * scale, v[1] * scale, v[2] * scale}))
			v = [3]float64{f.AtVec(0), f.AtVec(1), f.AtVec(2)}
		}
		s.Atoms[i] = Atom{Symbol: sym, Frac: v}
	}
	return s, nil
}

func parseTriple(line string) ([3]float64, error) {
	var v [3]float64
	f := strings.Fields(line)
	if len(f) < 3 {
		return v, fmt.Errorf("want 3 numbers, got %q", line)
	}
	for i := 0; i < 3; i++ {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return v, err
		}
		v[i] = x
	}
	return v, nil
}
