package symmetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBaseTable_Orthogonal(t *testing.T) {
	t.Parallel()
	for _, name := range BaseTable().Names() {
		op, err := BaseTable().Resolve(name)
		require.NoError(t, err, name)
		assert.True(t, op.Orthogonal(), "%s should be orthogonal", name)
	}
}

func TestOperation_Proper(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		proper bool
	}{
		{"E", true},
		{"C2", true},
		{"C3", true},
		{"C4", true},
		{"C6", true},
		{"Mx", false},
		{"My", false},
		{"Mxy", false},
		{"Mxy-", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := BaseTable().Resolve(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.proper, mat.Det(op.Matrix()) > 0)
		})
	}
}

func TestOperation_Degenerate(t *testing.T) {
	t.Parallel()
	table := BaseTable()
	for _, name := range table.Names() {
		op, err := table.Resolve(name)
		require.NoError(t, err)
		assert.Equal(t, name == "C2", op.Degenerate(), name)
	}
}

func TestTable_ResolvePowers(t *testing.T) {
	t.Parallel()
	table := BaseTable()

	c3sq, err := table.Resolve("C3^2")
	require.NoError(t, err)
	assert.Equal(t, "C3^2", c3sq.Name())
	want := mat.NewDense(2, 2, []float64{-0.5, sqrt3half, -sqrt3half, -0.5})
	assert.True(t, mat.EqualApprox(c3sq.Matrix(), want, 1e-12), "C3^2 = %v", c3sq)

	c65, err := table.Resolve("C6⁵")
	require.NoError(t, err)
	want = mat.NewDense(2, 2, []float64{0.5, sqrt3half, -sqrt3half, 0.5})
	assert.True(t, mat.EqualApprox(c65.Matrix(), want, 1e-12), "C6⁵ = %v", c65)

	c43, err := table.Resolve("C4^3")
	require.NoError(t, err)
	want = mat.NewDense(2, 2, []float64{0, 1, -1, 0})
	assert.True(t, mat.EqualApprox(c43.Matrix(), want, 1e-12), "C4^3 = %v", c43)
}

func TestTable_ResolveUnknown(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"C7", "C3^0", "C3^x", "Foo^2", "²", ""} {
		_, err := BaseTable().Resolve(name)
		assert.True(t, errors.Is(err, ErrUnknownOperation), "%q: got %v", name, err)
	}

	_, err := BaseTable().Resolve("C5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known: C2, C3, C4, C6, E, Mx, Mxy, Mxy-, My")
}

func TestNewOperation_Invalid(t *testing.T) {
	t.Parallel()
	_, err := NewOperation("", identity())
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = NewOperation("R3", mat.NewDense(3, 3, nil))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestOperation_MatrixIsCopy(t *testing.T) {
	t.Parallel()
	op, err := BaseTable().Resolve("Mx")
	require.NoError(t, err)
	m := op.Matrix()
	m.Set(0, 0, 42)
	assert.Equal(t, 1.0, op.Matrix().At(0, 0))
}
