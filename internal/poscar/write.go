package poscar

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Write emits s in VASP5 Direct format with unit scale. Atoms are grouped
// by species in order of first appearance; within a species the input
// order is kept.
func Write(w io.Writer, s *Structure) error {
	bw := bufio.NewWriter(w)
	comment := strings.ReplaceAll(s.Comment, "\n", " ")
	fmt.Fprintln(bw, comment)
	fmt.Fprintln(bw, "1.0")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(bw, "  %18.12f  %18.12f  %18.12f\n", s.Lattice.At(i, 0), s.Lattice.At(i, 1), s.Lattice.At(i, 2))
	}

	symbols, counts := s.Species()
	fmt.Fprintf(bw, "  %s\n", strings.Join(symbols, "  "))
	cs := make([]string, len(counts))
	for i, c := range counts {
		cs[i] = fmt.Sprint(c)
	}
	fmt.Fprintf(bw, "  %s\n", strings.Join(cs, "  "))
	fmt.Fprintln(bw, "Direct")
	for _, sym := range symbols {
		for _, a := range s.Atoms {
			if a.Symbol == sym {
				fmt.Fprintf(bw, "  %.12f  %.12f  %.12f\n", a.Frac[0], a.Frac[1], a.Frac[2])
			}
		}
	}
	return bw.Flush()
}
