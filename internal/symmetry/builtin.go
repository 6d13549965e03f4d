package symmetry

import (
	"fmt"
	"sync"
)

// groupSpec is the declarative form of a catalog entry before its operation
// names are resolved against a Table. The YAML loader produces the same form.
type groupSpec struct {
	label     string
	ops       []string
	zSignFlip bool
}

var (
	hexFull    = []string{"E", "C6", "C3", "C2", "C3^2", "C6^5", "Mx", "My", "Mxy"}
	hexMirror3 = []string{"E", "C3", "C3^2", "Mx", "My"}
	hexInv3    = []string{"E", "C3", "C3^2", "C2", "Mx", "My"}
	hexRot6    = []string{"E", "C6", "C3", "C2", "C3^2", "C6^5"}
	rectMirror = []string{"E", "C2", "Mx", "My"}
	sqRot      = []string{"E", "C4", "C2", "C4^3"}
	sqMirror   = []string{"E", "C4", "C2", "C4^3", "Mx", "My", "Mxy", "Mxy-"}
)

// Glide and centred groups share the linear part of their symmorphic
// counterparts; the translation parts drop out of (I + R)·τ.
var builtinSpecs = []groupSpec{
	// oblique
	{"p1", []string{"E"}, false},
	{"p-1", []string{"E", "C2"}, true},
	{"p2", []string{"E", "C2"}, false},

	// rectangular and centred rectangular
	{"pm", []string{"E", "My"}, false},
	{"pg", []string{"E", "My"}, false},
	{"cm", []string{"E", "My"}, false},
	{"p2mm", rectMirror, false},
	{"pmm2", rectMirror, false},
	{"pman", rectMirror, false},
	{"pmmm", rectMirror, false},
	{"p2mg", rectMirror, false},
	{"p2gg", []string{"E", "C2"}, false},
	{"c2mm", rectMirror, false},
	{"cmm2", rectMirror, false},
	{"cmmm", rectMirror, false},

	// square
	{"p4", sqRot, false},
	{"p-4", sqRot, false},
	{"p4mm", sqMirror, false},
	{"p-4m2", sqMirror, false},

	// hexagonal
	{"p3", []string{"E", "C3", "C3^2"}, true},
	{"p-3", []string{"E", "C3", "C3^2", "C2"}, true},
	{"p3m1", hexMirror3, true},
	{"p31m", hexMirror3, true},
	{"p-3m1", hexInv3, true},
	{"p-31m", hexInv3, true},
	{"p6", hexRot6, true},
	{"p-6", hexRot6, true},
	{"p6mm", hexFull, true},
	{"p-6m2", hexFull, true},
}

func buildGroup(t Table, s groupSpec) (LayerGroup, error) {
	g := LayerGroup{Label: s.label, ZSignFlip: s.zSignFlip}
	for _, name := range s.ops {
		op, err := t.Resolve(name)
		if err != nil {
			return LayerGroup{}, fmt.Errorf("%w: layer group %s: %w", ErrInvalidCatalog, s.label, err)
		}
		g.Operations = append(g.Operations, op)
	}
	return g, nil
}

func buildCatalog(t Table, specs []groupSpec) (*Catalog, error) {
	groups := make([]LayerGroup, 0, len(specs))
	for _, s := range specs {
		g, err := buildGroup(t, s)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return NewCatalog(groups...)
}

var builtin = sync.OnceValue(func() *Catalog {
	c, err := buildCatalog(BaseTable(), builtinSpecs)
	if err != nil {
		panic(fmt.Sprintf("symmetry: built-in catalog: %v", err))
	}
	return c
})

// Builtin returns the shared built-in catalog of the 2D layer groups this
// package knows about. The catalog is immutable and safe for concurrent use.
func Builtin() *Catalog { return builtin() }
