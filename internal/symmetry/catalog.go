package symmetry

import (
	"fmt"
	"sort"
	"strings"
)

// Provider resolves a layer-group label to its ordered operation list.
// The scanner depends only on this interface.
type Provider interface {
	OperationsFor(label string) ([]Operation, error)
}

// GroupProvider is a Provider that can also return the whole catalog entry,
// including its z-sign-flip expectation.
type GroupProvider interface {
	Provider
	Group(label string) (LayerGroup, error)
}

// LayerGroup is one catalog entry.
type LayerGroup struct {
	Label      string
	Operations []Operation
	// ZSignFlip is true when the AB and BA stackings of this group are
	// related by inversion, so the out-of-plane polarization reverses
	// between them. When they are related by C2z it does not.
	ZSignFlip bool
}

// OperationNames returns the operation names in catalog order.
func (g LayerGroup) OperationNames() []string {
	names := make([]string, len(g.Operations))
	for i, op := range g.Operations {
		names[i] = op.Name()
	}
	return names
}

// Degenerate returns one advisory error per operation with I + R = 0.
func (g LayerGroup) Degenerate() []error {
	var out []error
	for _, op := range g.Operations {
		if op.Degenerate() {
			out = append(out, &DegenerateOperationError{LayerGroup: g.Label, Operation: op.Name()})
		}
	}
	return out
}

func (g LayerGroup) validate() error {
	if g.Label == "" {
		return fmt.Errorf("%w: empty layer group label", ErrInvalidCatalog)
	}
	if len(g.Operations) == 0 {
		return fmt.Errorf("%w: layer group %s has no operations", ErrInvalidCatalog, g.Label)
	}
	if len(g.Operations) > MaxOperations {
		return fmt.Errorf("%w: layer group %s has %d operations (max %d)", ErrInvalidCatalog, g.Label, len(g.Operations), MaxOperations)
	}
	seen := make(map[string]struct{}, len(g.Operations))
	for _, op := range g.Operations {
		if op.r == nil {
			return fmt.Errorf("%w: layer group %s has an uninitialised operation", ErrInvalidCatalog, g.Label)
		}
		if _, dup := seen[op.Name()]; dup {
			return fmt.Errorf("%w: layer group %s lists %s twice", ErrInvalidCatalog, g.Label, op.Name())
		}
		seen[op.Name()] = struct{}{}
		if !op.Orthogonal() {
			return fmt.Errorf("%w: layer group %s: operation %s is not orthogonal", ErrInvalidCatalog, g.Label, op.Name())
		}
	}
	return nil
}

// Catalog is an immutable set of layer groups keyed by normalised label.
type Catalog struct {
	groups map[string]LayerGroup
	labels []string
}

// NormalizeLabel canonicalises a layer-group label for lookup.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// NewCatalog validates groups and builds a catalog. Every operation matrix
// must be orthogonal and operation names must be unique within a group.
func NewCatalog(groups ...LayerGroup) (*Catalog, error) {
	c := &Catalog{groups: make(map[string]LayerGroup, len(groups))}
	for _, g := range groups {
		g.Label = NormalizeLabel(g.Label)
		if err := g.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.groups[g.Label]; dup {
			return nil, fmt.Errorf("%w: layer group %s defined twice", ErrInvalidCatalog, g.Label)
		}
		ops := make([]Operation, len(g.Operations))
		copy(ops, g.Operations)
		g.Operations = ops
		c.groups[g.Label] = g
		c.labels = append(c.labels, g.Label)
	}
	sort.Strings(c.labels)
	return c, nil
}

// Group returns the entry for label.
func (c *Catalog) Group(label string) (LayerGroup, error) {
	g, ok := c.groups[NormalizeLabel(label)]
	if !ok {
		return LayerGroup{}, fmt.Errorf("%w: %q", ErrUnknownLayerGroup, label)
	}
	ops := make([]Operation, len(g.Operations))
	copy(ops, g.Operations)
	g.Operations = ops
	return g, nil
}

// OperationsFor implements Provider.
func (c *Catalog) OperationsFor(label string) ([]Operation, error) {
	g, err := c.Group(label)
	if err != nil {
		return nil, err
	}
	return g.Operations, nil
}

// Labels returns every label in sorted order.
func (c *Catalog) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Len is the number of layer groups.
func (c *Catalog) Len() int { return len(c.labels) }

// Merge returns a new catalog holding c's groups overlaid by other's.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	out := &Catalog{groups: make(map[string]LayerGroup, len(c.groups)+len(other.groups))}
	for l, g := range c.groups {
		out.groups[l] = g
	}
	for l, g := range other.groups {
		out.groups[l] = g
	}
	for l := range out.groups {
		out.labels = append(out.labels, l)
	}
	sort.Strings(out.labels)
	return out
}
