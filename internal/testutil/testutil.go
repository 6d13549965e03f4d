// Package testutil provides fixtures shared by tests in several packages.
package testutil

import (
	"database/sql"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// System is one row of a c2db-shaped database.
type System struct {
	ID         int
	UID        string
	LayerGroup string // omitted from text_key_values when empty
	// Cell holds the lattice rows a, b, c in Å, row-major.
	Cell []float64
	// Positions holds Cartesian coordinates in Å, three per atom.
	Positions []float64
	Numbers   []int
	// Int64Numbers stores Numbers as int64 instead of int32.
	Int64Numbers bool
}

// HexCell returns a hexagonal cell with in-plane constant a and c length c.
func HexCell(a, c float64) []float64 {
	return []float64{a, 0, 0, -a / 2, a * math.Sqrt(3) / 2, 0, 0, 0, c}
}

// MoS2 returns a trigonal-prismatic MoS2-like monolayer in p-6m2 with a
// 3.19 Å hexagonal cell centred at z = 10 Å.
func MoS2(id int, uid string) System {
	a := 3.19
	return System{
		ID:         id,
		UID:        uid,
		LayerGroup: "p-6m2",
		Cell:       HexCell(a, 20),
		Positions: []float64{
			0, 0, 10,
			a / 2, a * math.Sqrt(3) / 6, 8.44,
			a / 2, a * math.Sqrt(3) / 6, 11.56,
		},
		Numbers: []int{42, 16, 16},
	}
}

// EncodeFloats packs v as little-endian float64, the ASE blob layout.
func EncodeFloats(v []float64) []byte {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(x))
	}
	return b
}

// EncodeInt32s packs v as little-endian int32.
func EncodeInt32s(v []int) []byte {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(int32(x)))
	}
	return b
}

// EncodeInt64s packs v as little-endian int64.
func EncodeInt64s(v []int) []byte {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[8*i:], uint64(int64(x)))
	}
	return b
}

// WriteC2DB creates a c2db-shaped sqlite database at path holding
// systems.
func WriteC2DB(t testing.TB, path string, systems ...System) {
	t.Helper()
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer raw.Close()

	_, err = raw.Exec(`
		CREATE TABLE systems (id INTEGER PRIMARY KEY, cell BLOB, positions BLOB, numbers BLOB, natoms INTEGER);
		CREATE TABLE text_key_values (key TEXT, value TEXT, id INTEGER);
	`)
	require.NoError(t, err)

	for _, s := range systems {
		numbers := EncodeInt32s(s.Numbers)
		if s.Int64Numbers {
			numbers = EncodeInt64s(s.Numbers)
		}
		_, err := raw.Exec(`INSERT INTO systems (id, cell, positions, numbers, natoms) VALUES (?, ?, ?, ?, ?)`,
			s.ID, EncodeFloats(s.Cell), EncodeFloats(s.Positions), numbers, len(s.Positions)/3)
		require.NoError(t, err)
		_, err = raw.Exec(`INSERT INTO text_key_values (key, value, id) VALUES ('uid', ?, ?)`, s.UID, s.ID)
		require.NoError(t, err)
		if s.LayerGroup != "" {
			_, err = raw.Exec(`INSERT INTO text_key_values (key, value, id) VALUES ('layergroup', ?, ?)`, s.LayerGroup, s.ID)
			require.NoError(t, err)
		}
	}
	require.NoError(t, raw.Close())
}

// C2DB writes systems to a fresh database under t.TempDir and returns its
// path.
func C2DB(t testing.TB, systems ...System) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "c2db.db")
	WriteC2DB(t, path, systems...)
	return path
}
