package poscar

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/sympol2d/internal/material"
)

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// mos2 is a toy trigonal-prismatic layer on a square cell with exactly
// representable coordinates.
func mos2() *Structure {
	return &Structure{
		Comment: "MoS2",
		Lattice: mat.NewDense(3, 3, []float64{3, 0, 0, 0, 3, 0, 0, 0, 8}),
		Atoms: []Atom{
			{"Mo", [3]float64{0, 0, 0.5}},
			{"S", [3]float64{0.5, 0.5, 0.375}},
			{"S", [3]float64{0.5, 0.5, 0.625}},
		},
	}
}

func TestWrite_Monolayer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, mos2()))
	golden(t).Assert(t, "mos2_mono", buf.Bytes())
}

func TestBuildBilayer_Golden(t *testing.T) {
	bi, err := BuildBilayer(mos2(), [2]float64{0.5, 0.25}, 3.0, 10.0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, bi))
	golden(t).Assert(t, "mos2_bilayer_ab", buf.Bytes())
}

func TestBuildBilayer_Geometry(t *testing.T) {
	t.Parallel()
	bi, err := BuildBilayer(mos2(), [2]float64{1.0 / 3, 2.0 / 3}, 3.1, 15)
	require.NoError(t, err)

	assert.Equal(t, "Mo2S4", bi.Formula())
	c := bi.CLength()
	assert.InDelta(t, 2*15+2*2+3.1, c, 1e-9)

	// Gap between the bottom layer's top S and the top layer's bottom S.
	bottomTop := bi.Atoms[2].Frac[2] * c
	topBottom := bi.Atoms[4].Frac[2] * c
	assert.InDelta(t, 3.1, topBottom-bottomTop, 1e-9)

	assert.InDelta(t, 1.0/3, bi.Atoms[3].Frac[0], 1e-12)
	assert.InDelta(t, 2.0/3, bi.Atoms[3].Frac[1], 1e-12)
	assert.InDelta(t, 5.0/6, bi.Atoms[4].Frac[0], 1e-12)
	assert.InDelta(t, 1.0/6, bi.Atoms[4].Frac[1], 1e-12)
}

func TestBuildBilayer_Invalid(t *testing.T) {
	t.Parallel()
	_, err := BuildBilayer(&Structure{Lattice: mat.NewDense(3, 3, nil)}, [2]float64{}, 3, 10)
	assert.Error(t, err)
	_, err = BuildBilayer(mos2(), [2]float64{}, 0, 10)
	assert.Error(t, err)
	_, err = BuildBilayer(mos2(), [2]float64{}, 3, -1)
	assert.Error(t, err)
}

func TestRead_RoundTripsWrite(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, mos2()))

	s, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "MoS2", s.Comment)
	assert.Equal(t, "MoS2", s.Formula())
	assert.True(t, mat.EqualApprox(mos2().Lattice, s.Lattice, 1e-12))
	assert.Equal(t, mos2().Atoms, s.Atoms)
}

const selectiveCartesian = `hBN
  2.0
  1.25 0.0 0.0
  0.0 1.25 0.0
  0.0 0.0 5.0
  B N
  1 1
Selective dynamics
Cartesian
  0.0 0.0 5.0 T T F
  1.25 1.25 5.0 T T F
`

func TestRead_ScaleSelectiveCartesian(t *testing.T) {
	t.Parallel()
	s, err := Read(strings.NewReader(selectiveCartesian))
	require.NoError(t, err)

	assert.InDelta(t, 2.5, s.Lattice.At(0, 0), 1e-12)
	assert.InDelta(t, 10, s.CLength(), 1e-12)
	require.Len(t, s.Atoms, 2)
	assert.Equal(t, "B", s.Atoms[0].Symbol)
	assert.InDelta(t, 1.0, s.Atoms[0].Frac[2], 1e-12)
	assert.InDelta(t, 1.0, s.Atoms[1].Frac[0], 1e-12)
	assert.InDelta(t, 1.0, s.Atoms[1].Frac[1], 1e-12)
}

func TestRead_NegativeScaleIsVolume(t *testing.T) {
	t.Parallel()
	in := "cube\n-8\n1 0 0\n0 1 0\n0 0 1\nC\n1\nDirect\n0 0 0\n"
	s, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.InDelta(t, 2, s.Lattice.At(0, 0), 1e-12)
}

func TestRead_Malformed(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"too short":      "x\n1\n",
		"vasp4":          "x\n1\n1 0 0\n0 1 0\n0 0 1\n1\nDirect\n0 0 0\n",
		"count mismatch": "x\n1\n1 0 0\n0 1 0\n0 0 1\nC N\n1\nDirect\n0 0 0\n",
		"bad mode":       "x\n1\n1 0 0\n0 1 0\n0 0 1\nC\n1\nFoo\n0 0 0\n",
		"missing atoms":  "x\n1\n1 0 0\n0 1 0\n0 0 1\nC\n3\nDirect\n0 0 0\n",
		"bad lattice":    "x\n1\n1 0\n0 1 0\n0 0 1\nC\n1\nDirect\n0 0 0\n",
		"bad coordinate": "x\n1\n1 0 0\n0 1 0\n0 0 1\nC\n1\nDirect\n0 a 0\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestFromMaterial(t *testing.T) {
	t.Parallel()
	a := 3.19
	m := &material.Material{
		UID:     "1MoS2-1",
		Formula: "MoS2",
		Cell:    mat.NewDense(3, 3, []float64{a, 0, 0, -a / 2, a * math.Sqrt(3) / 2, 0, 0, 0, 20}),
		Positions: [][3]float64{
			{0, 0, 10},
			{a / 2, a * math.Sqrt(3) / 6, 8.44},
			{a / 2, a * math.Sqrt(3) / 6, 11.56},
		},
		Numbers: []int{42, 16, 16},
	}
	s, err := FromMaterial(m)
	require.NoError(t, err)

	assert.Equal(t, "MoS2", s.Formula())
	assert.InDelta(t, 2.0/3, s.Atoms[1].Frac[0], 1e-12)
	assert.InDelta(t, 1.0/3, s.Atoms[1].Frac[1], 1e-12)
	assert.InDelta(t, 0.422, s.Atoms[1].Frac[2], 1e-12)
	assert.InDelta(t, 0.5, s.Atoms[0].Frac[2], 1e-12)

	m.Cell = mat.NewDense(3, 3, nil)
	_, err = FromMaterial(m)
	assert.Error(t, err)
}
