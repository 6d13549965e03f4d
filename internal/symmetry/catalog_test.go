package symmetry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewCatalog_Validation(t *testing.T) {
	t.Parallel()
	e := mustResolve(t, "E")[0]
	stretch, err := NewOperation("S", mat.NewDense(2, 2, []float64{2, 0, 0, 1}))
	require.NoError(t, err)

	many := make([]Operation, MaxOperations+1)
	for i := range many {
		many[i], err = NewOperation(fmt.Sprintf("E%d", i), identity())
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		groups []LayerGroup
	}{
		{"empty label", []LayerGroup{{Label: " ", Operations: []Operation{e}}}},
		{"no operations", []LayerGroup{{Label: "p1"}}},
		{"duplicate operation", []LayerGroup{{Label: "p1", Operations: []Operation{e, e}}}},
		{"non-orthogonal", []LayerGroup{{Label: "p1", Operations: []Operation{e, stretch}}}},
		{"zero operation", []LayerGroup{{Label: "p1", Operations: []Operation{{}}}}},
		{"too many operations", []LayerGroup{{Label: "p1", Operations: many}}},
		{"duplicate label", []LayerGroup{
			{Label: "p1", Operations: []Operation{e}},
			{Label: "P1", Operations: []Operation{e}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.groups...)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestCatalog_OperationsFor(t *testing.T) {
	t.Parallel()
	c := Builtin()

	ops, err := c.OperationsFor(" P6MM ")
	require.NoError(t, err)
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name()
	}
	want := []string{"E", "C6", "C3", "C2", "C3^2", "C6^5", "Mx", "My", "Mxy"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("p6mm operations mismatch (-want +got):\n%s", diff)
	}

	_, err = c.OperationsFor("p99")
	assert.True(t, errors.Is(err, ErrUnknownLayerGroup), "got %v", err)
}

func TestCatalog_OperationsForReturnsCopy(t *testing.T) {
	t.Parallel()
	ops, err := Builtin().OperationsFor("p2")
	require.NoError(t, err)
	ops[0] = Operation{}

	again, err := Builtin().OperationsFor("p2")
	require.NoError(t, err)
	assert.Equal(t, "E", again[0].Name())
}

func TestBuiltin_Contents(t *testing.T) {
	t.Parallel()
	c := Builtin()
	assert.Equal(t, 29, c.Len())
	for _, label := range []string{"p1", "p-1", "p2mm", "c2mm", "p4mm", "p-4m2", "p3m1", "p-6m2"} {
		assert.Contains(t, c.Labels(), label)
	}
	assert.Same(t, c, Builtin())
}

func TestLayerGroup_Degenerate(t *testing.T) {
	t.Parallel()
	g, err := Builtin().Group("p6mm")
	require.NoError(t, err)

	adv := g.Degenerate()
	require.Len(t, adv, 1)
	assert.ErrorIs(t, adv[0], ErrDegenerateOperation)

	var de *DegenerateOperationError
	require.True(t, errors.As(adv[0], &de))
	assert.Equal(t, "C2", de.Operation)
	assert.Equal(t, "p6mm", de.LayerGroup)

	p1, err := Builtin().Group("p1")
	require.NoError(t, err)
	assert.Empty(t, p1.Degenerate())
}

func TestBuiltin_ZSignFlip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		label string
		flip  bool
	}{
		{"p6mm", true},
		{"p-1", true},
		{"p4mm", false},
		{"p2mm", false},
		{"pm", false},
	}
	var gp GroupProvider = Builtin()
	for _, tt := range tests {
		g, err := gp.Group(tt.label)
		require.NoError(t, err)
		if g.ZSignFlip != tt.flip {
			t.Errorf("Group(%q).ZSignFlip = %v, want %v", tt.label, g.ZSignFlip, tt.flip)
		}
	}
	_, err := gp.Group("nope")
	assert.ErrorIs(t, err, ErrUnknownLayerGroup)
}

func TestCatalog_Merge(t *testing.T) {
	t.Parallel()
	e := mustResolve(t, "E")[0]
	custom, err := NewCatalog(LayerGroup{Label: "p1", Operations: []Operation{e}, ZSignFlip: true})
	require.NoError(t, err)

	merged := Builtin().Merge(custom)
	assert.Equal(t, Builtin().Len(), merged.Len())
	g, err := merged.Group("p1")
	require.NoError(t, err)
	assert.True(t, g.ZSignFlip)

	orig, err := Builtin().Group("p1")
	require.NoError(t, err)
	assert.False(t, orig.ZSignFlip)
}
