package material

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sympol2d/internal/testutil"
)

// setupC2DB writes a minimal c2db-shaped database and opens it read-only.
func setupC2DB(t *testing.T) *DB {
	t.Helper()
	a := 3.19
	ws2 := testutil.MoS2(2, "1WS2-1")
	ws2.Positions = []float64{0, 0, 10, a / 2, a * math.Sqrt(3) / 6, 8.4, a / 2, a * math.Sqrt(3) / 6, 11.6}
	ws2.Numbers = []int{74, 16, 16}
	ws2.Int64Numbers = true
	bn := testutil.MoS2(3, "1BN-2")
	bn.Positions = []float64{0, 0, 10, a / 2, a * math.Sqrt(3) / 6, 10}
	bn.Numbers = []int{5, 7}

	path := testutil.C2DB(t,
		testutil.MoS2(1, "1MoS2-1"),
		ws2,
		bn,
		testutil.System{ID: 4, UID: "2P-1", LayerGroup: "pmmn", Cell: []float64{3.3, 0, 0, 0, 4.6, 0, 0, 0, 20}, Positions: []float64{0, 0, 10}, Numbers: []int{15}},
		testutil.System{ID: 5, UID: "bare", Cell: testutil.HexCell(a, 20), Positions: []float64{0, 0, 10}, Numbers: []int{6}},
	)
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMaterialByUID(t *testing.T) {
	t.Parallel()
	db := setupC2DB(t)

	m, err := db.MaterialByUID("1MoS2-1")
	require.NoError(t, err)
	assert.Equal(t, "MoS2", m.Formula)
	assert.Equal(t, "p-6m2", m.LayerGroup)
	assert.Equal(t, 3, m.NAtoms())
	assert.Equal(t, []int{42, 16, 16}, m.Numbers)
	assert.InDelta(t, 3.19, m.Cell.At(0, 0), 1e-12)
	assert.InDelta(t, 20, m.Cell.At(2, 2), 1e-12)
	assert.InDelta(t, 11.56, m.Positions[2][2], 1e-12)
	assert.Equal(t, "Material(MoS2, p-6m2)", m.String())
}

func TestMaterialByUID_Int64Numbers(t *testing.T) {
	t.Parallel()
	db := setupC2DB(t)

	m, err := db.MaterialByUID("1WS2-1")
	require.NoError(t, err)
	assert.Equal(t, []int{74, 16, 16}, m.Numbers)
}

func TestMaterialByUID_DefaultLayerGroup(t *testing.T) {
	t.Parallel()
	db := setupC2DB(t)

	m, err := db.MaterialByUID("bare")
	require.NoError(t, err)
	assert.Equal(t, DefaultLayerGroup, m.LayerGroup)
	assert.Equal(t, "bare", m.Formula)
}

func TestMaterialByUID_NotFound(t *testing.T) {
	t.Parallel()
	db := setupC2DB(t)

	_, err := db.MaterialByUID("1XYZ-9")
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	db := setupC2DB(t)

	tests := []struct {
		name        string
		formula, lg string
		limit       int
		want        []string
	}{
		{"by formula", "S2", "", 10, []string{"1MoS2-1", "1WS2-1"}},
		{"by layer group", "", "pmmn", 10, []string{"2P-1"}},
		{"both", "BN", "p-6m2", 10, []string{"1BN-2"}},
		{"limit", "", "p-6m2", 2, []string{"1BN-2", "1MoS2-1"}},
		{"no match", "Xx", "", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := db.Search(tt.formula, tt.lg, tt.limit)
			require.NoError(t, err)
			var uids []string
			for _, h := range hits {
				uids = append(uids, h.UID)
			}
			if diff := cmp.Diff(tt.want, uids); diff != "" {
				t.Errorf("uids mismatch (-want +got):\n%s", diff)
			}
		})
	}

	hits, err := db.Search("bare", "", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "unknown", hits[0].LayerGroup)
}

func TestLayerGroups(t *testing.T) {
	t.Parallel()
	db := setupC2DB(t)

	got, err := db.LayerGroups()
	require.NoError(t, err)
	want := []GroupCount{{"p-6m2", 3}, {"pmmn", 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("layer groups mismatch (-want +got):\n%s", diff)
	}
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()
	_, err := Open(filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}

func TestFormulaFromUID(t *testing.T) {
	t.Parallel()
	for uid, want := range map[string]string{
		"1MoS2-3":  "MoS2",
		"MoS2-3":   "MoS2",
		"1BN-2":    "BN",
		"graphene": "graphene",
	} {
		assert.Equal(t, want, FormulaFromUID(uid), uid)
	}
}

func TestDecodeInts_BadLength(t *testing.T) {
	t.Parallel()
	_, err := decodeInts([]byte{1, 2, 3}, 2)
	assert.Error(t, err)
}

func TestElements(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Mo", Symbol(42))
	assert.Equal(t, "W", Symbol(74))
	assert.Equal(t, "Z0", Symbol(0))
	z, ok := AtomicNumber("Se")
	assert.True(t, ok)
	assert.Equal(t, 34, z)
	_, ok = AtomicNumber("Qq")
	assert.False(t, ok)

	assert.Equal(t, DefaultInterlayerDistance, EstimateInterlayerDistance([]int{42, 16, 16}))
}
