package db

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/sympol2d/internal/report"
	"github.com/banshee-data/sympol2d/internal/stacking"
)

// ErrRunNotFound is returned for unknown run IDs.
var ErrRunNotFound = errors.New("scan run not found")

const defaultRunLimit = 20

// RunSummary is one row of scan_runs without the stored record.
type RunSummary struct {
	ID          string    `json:"run_id"`
	LayerGroup  string    `json:"layer_group"`
	MaterialUID string    `json:"material_uid,omitempty"`
	Formula     string    `json:"formula,omitempty"`
	GridSize    int       `json:"grid_size"`
	Tolerance   float64   `json:"tolerance"`
	PairCount   int       `json:"pair_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// PairRow is one stored pair.
type PairRow struct {
	RunID     string          `json:"run_id"`
	Direction string          `json:"direction"`
	Rank      int             `json:"rank"`
	Name      string          `json:"name"`
	Partner   string          `json:"partner"`
	TauAB     stacking.Vector `json:"tau_ab"`
	TauBA     stacking.Vector `json:"tau_ba"`
	Broken    []string        `json:"broken_symmetries"`
}

// SaveRun stores rec under a fresh run ID. The record and each of its pairs
// are written in one transaction; rec.RunID is set only once it commits.
func (db *DB) SaveRun(rec *report.Record) (string, error) {
	id := uuid.NewString()
	stored := *rec
	stored.RunID = id

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, &stored); err != nil {
		return "", err
	}
	var uid, formula string
	if rec.Material != nil {
		uid, formula = rec.Material.UID, rec.Material.Formula
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO scan_runs (run_id, layer_group, material_uid, formula, grid_size, tolerance, pair_count, created_unix_nanos, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.LayerGroup, uid, formula, rec.GridSize, rec.Tolerance, rec.TotalPairs(), db.clock.Now().UnixNano(), buf.String())
	if err != nil {
		return "", fmt.Errorf("failed to insert scan run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scan_pairs (run_id, direction, rank, name, partner, tau_ab_x, tau_ab_y, tau_ba_x, tau_ba_y, broken)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare pair insert: %w", err)
	}
	defer stmt.Close()
	for dir, pairs := range rec.Pairs {
		for _, p := range pairs {
			if _, err := stmt.Exec(id, dir, p.Rank, p.Name, p.Partner,
				p.TauAB[0], p.TauAB[1], p.TauBA[0], p.TauBA[1], strings.Join(p.Broken, ",")); err != nil {
				return "", fmt.Errorf("failed to insert %s pair %d: %w", dir, p.Rank, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit scan run: %w", err)
	}
	rec.RunID = id
	return id, nil
}

// Run loads the record stored under id.
func (db *DB) Run(id string) (*report.Record, error) {
	var raw string
	err := db.QueryRow(`SELECT result_json FROM scan_runs WHERE run_id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return report.ReadJSON(strings.NewReader(raw))
}

// ListRuns returns the newest runs first. limit <= 0 selects the default
// of 20.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	rows, err := db.Query(`
		SELECT run_id, layer_group, material_uid, formula, grid_size, tolerance, pair_count, created_unix_nanos
		FROM scan_runs
		ORDER BY created_unix_nanos DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var nanos int64
		if err := rows.Scan(&r.ID, &r.LayerGroup, &r.MaterialUID, &r.Formula, &r.GridSize, &r.Tolerance, &r.PairCount, &nanos); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, nanos).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunPairs returns the stored pairs of run id ordered by direction and
// rank. An empty direction returns every direction.
func (db *DB) RunPairs(id, direction string) ([]PairRow, error) {
	q := `SELECT run_id, direction, rank, name, partner, tau_ab_x, tau_ab_y, tau_ba_x, tau_ba_y, broken
		FROM scan_pairs WHERE run_id = ?`
	args := []interface{}{id}
	if direction != "" {
		q += ` AND direction = ?`
		args = append(args, direction)
	}
	q += ` ORDER BY direction, rank`

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load pairs for %s: %w", id, err)
	}
	defer rows.Close()

	var out []PairRow
	for rows.Next() {
		var p PairRow
		var broken string
		if err := rows.Scan(&p.RunID, &p.Direction, &p.Rank, &p.Name, &p.Partner,
			&p.TauAB[0], &p.TauAB[1], &p.TauBA[0], &p.TauBA[1], &broken); err != nil {
			return nil, err
		}
		if broken != "" {
			p.Broken = strings.Split(broken, ",")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteRun removes run id and its pairs.
func (db *DB) DeleteRun(id string) error {
	res, err := db.Exec(`DELETE FROM scan_runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
