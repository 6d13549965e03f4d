// Package material reads 2D materials from a c2db (ASE) sqlite database.
//
// Only the two tables the scanner needs are touched: systems (cell,
// positions and atomic numbers as packed little-endian arrays) and
// text_key_values (uid and layergroup).
package material

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/mat"
	_ "modernc.org/sqlite"
)

// ErrMaterialNotFound is returned when no system carries the requested uid.
var ErrMaterialNotFound = errors.New("material not found")

// DefaultLayerGroup is assumed for systems without a layergroup key.
const DefaultLayerGroup = "p1"

// Material is one monolayer: lattice rows a, b, c in Å and Cartesian atom
// positions in Å.
type Material struct {
	UID        string
	Formula    string
	LayerGroup string
	Cell       *mat.Dense
	Positions  [][3]float64
	Numbers    []int
}

// NAtoms is the number of atoms in the cell.
func (m *Material) NAtoms() int { return len(m.Numbers) }

func (m *Material) String() string {
	return fmt.Sprintf("Material(%s, %s)", m.Formula, m.LayerGroup)
}

// Summary is one search hit.
type Summary struct {
	UID        string `json:"uid"`
	Formula    string `json:"formula"`
	LayerGroup string `json:"layer_group"`
}

// GroupCount is one row of the layer-group histogram.
type GroupCount struct {
	LayerGroup string `json:"layer_group"`
	Count      int    `json:"count"`
}

// DB is a read-only handle on a c2db database.
type DB struct {
	*sql.DB
}

// Open opens the database at path read-only. The file must exist.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("c2db database: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open c2db database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open c2db database: %w", err)
	}
	return &DB{db}, nil
}

// MaterialByUID loads the full structure for uid, e.g. "1MoS2-3".
func (db *DB) MaterialByUID(uid string) (*Material, error) {
	var (
		id                      int64
		cellBlob, posBlob, nums []byte
	)
	err := db.QueryRow(`
		SELECT s.id, s.cell, s.positions, s.numbers
		FROM systems s
		JOIN text_key_values t ON s.id = t.id
		WHERE t.key = 'uid' AND t.value = ?`, uid).Scan(&id, &cellBlob, &posBlob, &nums)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrMaterialNotFound, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query material %q: %w", uid, err)
	}

	lg := DefaultLayerGroup
	err = db.QueryRow(`SELECT value FROM text_key_values WHERE id = ? AND key = 'layergroup'`, id).Scan(&lg)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query layer group of %q: %w", uid, err)
	}

	cell, err := decodeFloats(cellBlob)
	if err != nil || len(cell) != 9 {
		return nil, fmt.Errorf("material %q: bad cell blob (%d bytes)", uid, len(cellBlob))
	}
	flat, err := decodeFloats(posBlob)
	if err != nil || len(flat)%3 != 0 {
		return nil, fmt.Errorf("material %q: bad positions blob (%d bytes)", uid, len(posBlob))
	}
	natoms := len(flat) / 3
	numbers, err := decodeInts(nums, natoms)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", uid, err)
	}

	positions := make([][3]float64, natoms)
	for i := range positions {
		copy(positions[i][:], flat[3*i:3*i+3])
	}
	return &Material{
		UID:        uid,
		Formula:    FormulaFromUID(uid),
		LayerGroup: lg,
		Cell:       mat.NewDense(3, 3, cell),
		Positions:  positions,
		Numbers:    numbers,
	}, nil
}

// Search lists materials whose uid contains formula and, when layerGroup
// is set, whose layer group matches exactly. Empty filters match all.
func (db *DB) Search(formula, layerGroup string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 10
	}
	q := `
		SELECT DISTINCT u.value, COALESCE(l.value, '')
		FROM text_key_values u
		LEFT JOIN text_key_values l ON l.id = u.id AND l.key = 'layergroup'
		WHERE u.key = 'uid'`
	var args []interface{}
	if formula != "" {
		q += ` AND u.value LIKE ?`
		args = append(args, "%"+formula+"%")
	}
	if layerGroup != "" {
		q += ` AND l.value = ?`
		args = append(args, layerGroup)
	}
	q += ` ORDER BY u.value LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search materials: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.UID, &s.LayerGroup); err != nil {
			return nil, err
		}
		if s.LayerGroup == "" {
			s.LayerGroup = "unknown"
		}
		s.Formula = FormulaFromUID(s.UID)
		out = append(out, s)
	}
	return out, rows.Err()
}

// LayerGroups returns every layer group with its material count, most
// common first.
func (db *DB) LayerGroups() ([]GroupCount, error) {
	rows, err := db.Query(`
		SELECT value, COUNT(*) AS n
		FROM text_key_values
		WHERE key = 'layergroup'
		GROUP BY value
		ORDER BY n DESC, value`)
	if err != nil {
		return nil, fmt.Errorf("failed to list layer groups: %w", err)
	}
	defer rows.Close()

	var out []GroupCount
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.LayerGroup, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// FormulaFromUID strips the c2db prefix digit and variant suffix:
// "1MoS2-3" → "MoS2". A uid without a dash is returned as is.
func FormulaFromUID(uid string) string {
	head, _, found := strings.Cut(uid, "-")
	if !found {
		return uid
	}
	if head != "" && unicode.IsDigit(rune(head[0])) {
		return head[1:]
	}
	return head
}
