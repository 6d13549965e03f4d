package stacking

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/banshee-data/sympol2d/internal/monitoring"
	"github.com/banshee-data/sympol2d/internal/symmetry"
)

const (
	// DefaultToleranceFactor is the preservation tolerance in grid steps.
	// Half a step keeps rational high-symmetry nodes from bleeding into
	// their neighbours.
	DefaultToleranceFactor = 0.5
	DefaultMinGridSize     = 2
	DefaultMaxGridSize     = 1000
)

// Options tunes a Scanner. Zero fields take the package defaults.
type Options struct {
	// ToleranceFactor scales the grid spacing into the absolute
	// preservation tolerance: tol = ToleranceFactor / N.
	ToleranceFactor float64
	MinGridSize     int
	MaxGridSize     int
	// Workers bounds the number of rows scanned concurrently.
	// Defaults to GOMAXPROCS.
	Workers int
}

// DefaultOptions returns the options used by Scan.
func DefaultOptions() Options {
	return Options{
		ToleranceFactor: DefaultToleranceFactor,
		MinGridSize:     DefaultMinGridSize,
		MaxGridSize:     DefaultMaxGridSize,
		Workers:         runtime.GOMAXPROCS(0),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ToleranceFactor <= 0 {
		o.ToleranceFactor = d.ToleranceFactor
	}
	if o.MinGridSize <= 0 {
		o.MinGridSize = d.MinGridSize
	}
	if o.MaxGridSize <= 0 {
		o.MaxGridSize = d.MaxGridSize
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	return o
}

// Scanner runs scans with fixed options. It holds no per-scan state and
// may be shared between goroutines.
type Scanner struct {
	opts Options
}

// NewScanner returns a Scanner using opts.
func NewScanner(opts Options) *Scanner {
	return &Scanner{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (s *Scanner) Options() Options { return s.opts }

// Scan runs a scan with DefaultOptions and no deadline.
func Scan(label string, n int, p symmetry.Provider) (*ScanResult, error) {
	return NewScanner(DefaultOptions()).Scan(context.Background(), label, n, p)
}

// Scan classifies every point of an n×n shift grid for the layer group
// label and pairs the polar points. It fails with ErrInvalidGridSize for
// n outside the configured bounds and passes provider errors (such as
// symmetry.ErrUnknownLayerGroup) through unchanged. No partial result is
// returned on error. ctx only bounds the grid pass.
func (s *Scanner) Scan(ctx context.Context, label string, n int, p symmetry.Provider) (*ScanResult, error) {
	start := time.Now()
	label = symmetry.NormalizeLabel(label)

	res, err := s.scan(ctx, label, n, p)
	if err != nil {
		monitoring.ObserveScan(label, "error", time.Since(start))
		return nil, err
	}
	monitoring.ObserveScan(label, "ok", time.Since(start))
	for _, dir := range Directions {
		monitoring.ObservePairs(dir.Short(), len(res.Pairs[dir]))
	}
	monitoring.Debugf("scan %s N=%d: %d pairs in %v", label, n, res.PairCount(), time.Since(start))
	return res, nil
}

func (s *Scanner) scan(ctx context.Context, label string, n int, p symmetry.Provider) (*ScanResult, error) {
	if n < s.opts.MinGridSize || n > s.opts.MaxGridSize {
		return nil, fmt.Errorf("%w: %d (allowed %d to %d)", ErrInvalidGridSize, n, s.opts.MinGridSize, s.opts.MaxGridSize)
	}
	ops, flip, err := resolve(label, p)
	if err != nil {
		return nil, err
	}
	if len(ops) > symmetry.MaxOperations {
		return nil, fmt.Errorf("%w: layer group %s has %d operations (max %d)", symmetry.ErrInvalidCatalog, label, len(ops), symmetry.MaxOperations)
	}

	names := make([]string, len(ops))
	var advisories []error
	for k, op := range ops {
		names[k] = op.Name()
		if op.Degenerate() {
			adv := &symmetry.DegenerateOperationError{LayerGroup: label, Operation: op.Name()}
			monitoring.Warnf("%v", adv)
			monitoring.ObserveAdvisory("degenerate_operation")
			advisories = append(advisories, adv)
		}
	}

	tol := s.opts.ToleranceFactor / float64(n)
	cls := NewClassifier(names)
	g, err := scanGrid(ctx, ops, cls, n, tol, s.opts.Workers)
	if err != nil {
		return nil, err
	}

	res := &ScanResult{
		LayerGroup: label,
		GridSize:   n,
		Tolerance:  tol,
		Operations: names,
		Labels:     g.label,
		Advisories: advisories,
		ZSignFlip:  flip,
	}
	res.AA, res.AAExact, res.AACaveat = findAA(g, cls)
	if res.AACaveat != "" {
		monitoring.Warnf("scan %s: %s", label, res.AACaveat)
	}
	res.Pairs, res.Discarded = pairUp(g, cls)
	return res, nil
}

// resolve looks label up in p. The z-sign-flip expectation is only known
// when p exposes whole groups.
func resolve(label string, p symmetry.Provider) ([]symmetry.Operation, *bool, error) {
	gp, ok := p.(symmetry.GroupProvider)
	if !ok {
		ops, err := p.OperationsFor(label)
		return ops, nil, err
	}
	g, err := gp.Group(label)
	if err != nil {
		return nil, nil, err
	}
	flip := g.ZSignFlip
	return g.Operations, &flip, nil
}
