package stacking

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/sympol2d/internal/symmetry"
)

// grid holds the preservation mask and label of every point, row-major:
// index i*n+j belongs to τ = (i/n, j/n).
type grid struct {
	n     int
	mask  []uint64
	label []PolarLabel
}

func (g *grid) at(i, j int) (uint64, PolarLabel) {
	k := i*g.n + j
	return g.mask[k], g.label[k]
}

func tauAt(i, j, n int) Vector {
	return Vector{float64(i) / float64(n), float64(j) / float64(n)}
}

// partner returns the grid indices of (1 − τ) mod 1.
func partner(i, j, n int) (int, int) {
	return (n - i) % n, (n - j) % n
}

// scanGrid tests and labels every point, one row per task. Every worker
// owns its own Tester and writes only its own row, so no locking is needed.
func scanGrid(ctx context.Context, ops []symmetry.Operation, cls *Classifier, n int, tol float64, workers int) (*grid, error) {
	g := &grid{n: n, mask: make([]uint64, n*n), label: make([]PolarLabel, n*n)}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := symmetry.NewTester(ops, tol)
			for j := 0; j < n; j++ {
				m := t.Mask(tauAt(i, j, n))
				g.mask[i*n+j] = m
				g.label[i*n+j] = cls.Label(m)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}
