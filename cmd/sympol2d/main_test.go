package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sympol2d/internal/db"
	"github.com/banshee-data/sympol2d/internal/material"
	"github.com/banshee-data/sympol2d/internal/report"
	"github.com/banshee-data/sympol2d/internal/stacking"
	"github.com/banshee-data/sympol2d/internal/symmetry"
	"github.com/banshee-data/sympol2d/internal/testutil"
)

// isolate runs the test in an empty directory with an empty home so no
// stray config file is read.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestScan_Text(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "scan", "p6mm", "--grid", "30", "--top", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Layer group: p6mm (9 operations)")
	assert.Contains(t, out, "STACKING CONFIGURATIONS (448 pairs)")
	assert.Contains(t, out, "X-POLAR PAIRS (28 found):")
	assert.Contains(t, out, "Pair 1 (AB2/BA2):")
	assert.Contains(t, out, "... and 27 more x-polar pairs")
	assert.Contains(t, out, "Advisory: layer group p6mm: operation C2 has I+R = 0 and is always preserved")
}

func TestScan_JSONAndArtefacts(t *testing.T) {
	dir := isolate(t)
	out, stderr, err := run(t, "scan", "p6mm", "--grid", "12", "--json",
		"--output", filepath.Join(dir, "out", "rec.json"),
		"--plot", filepath.Join(dir, "out", "map.png"),
		"--html", filepath.Join(dir, "out", "map.html"),
	)
	require.NoError(t, err)

	var rec report.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, 12, rec.GridSize)
	assert.Zero(t, rec.InterlayerDistance)

	for _, name := range []string{"rec.json", "map.png", "map.html"} {
		info, err := os.Stat(filepath.Join(dir, "out", name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
		assert.Contains(t, stderr, name)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out", "rec.json"))
	require.NoError(t, err)
	assert.JSONEq(t, out, string(data))
}

func TestScan_Errors(t *testing.T) {
	isolate(t)

	_, _, err := run(t, "scan", "p7", "--grid", "8")
	assert.ErrorIs(t, err, symmetry.ErrUnknownLayerGroup)

	_, _, err = run(t, "scan", "p6mm", "--grid", "8", "--polar-direction", "w")
	assert.ErrorIs(t, err, stacking.ErrUnknownDirection)

	_, _, err = run(t, "scan", "p6mm", "--grid", "1")
	assert.ErrorIs(t, err, stacking.ErrInvalidGridSize)
	assert.Contains(t, err.Error(), "grid_size")

	_, _, err = run(t, "scan")
	assert.Error(t, err)
}

func TestScan_ConfigFileAndEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sympol2d.yaml"), []byte("grid_size: 10\ntop_pairs: 0\n"), 0o644))
	t.Setenv("SYMPOL2D_GRID_SIZE", "14")

	out, _, err := run(t, "scan", "p2mm", "--json")
	require.NoError(t, err)
	var rec report.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, 14, rec.GridSize)
	assert.Len(t, rec.Pairs["x"], rec.PairCounts["x"], "top_pairs 0 keeps every pair")
}

func TestScan_SaveAndMigrate(t *testing.T) {
	dir := isolate(t)
	results := filepath.Join(dir, "runs.db")

	_, stderr, err := run(t, "scan", "p6mm", "--grid", "12", "--save", "--results-db", results)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Saved run")

	database, err := db.OpenDB(results)
	require.NoError(t, err)
	runs, err := database.ListRuns(10)
	require.NoError(t, err)
	require.NoError(t, database.Close())
	require.Len(t, runs, 1)
	assert.Equal(t, "p6mm", runs[0].LayerGroup)

	out, _, err := run(t, "migrate", "status", "--results-db", results)
	require.NoError(t, err)
	assert.Contains(t, out, "=== Migration Status ===")
	assert.Contains(t, out, "Database is up to date")

	_, _, err = run(t, "migrate", "sideways", "--results-db", results)
	assert.Error(t, err)
}

func TestGroups(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "groups")
	require.NoError(t, err)
	assert.Contains(t, out, "p6mm")
	assert.Contains(t, out, "E C6 C3 C2 C3^2 C6^5 Mx My Mxy")
}

func TestGroups_CustomCatalog(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layer_groups:\n  p2mm-custom:\n    operations: [E, C2, Mx, My]\n"), 0o644))

	out, _, err := run(t, "groups", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "p2mm-custom")
}

func TestGroups_CustomZSignFlip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layer_groups:\n  p2mm:\n    operations: [E, C2, Mx, My]\n    z_sign_flip: true\n  hexcustom:\n    operations: [E, C3, C3^2]\n    z_sign_flip: true\n"), 0o644))

	out, _, err := run(t, "groups", "--catalog", path)
	require.NoError(t, err)
	flips := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		if len(f) >= 3 {
			flips[f[0]] = f[2]
		}
	}
	assert.Equal(t, "true", flips["p2mm"])
	assert.Equal(t, "true", flips["hexcustom"])
	assert.Equal(t, "false", flips["p4mm"])

	out, _, err = run(t, "scan", "p2mm", "--grid", "12", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Pz flips sign")
}

func TestVersionAndConfig(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sympol2d dev")

	out, _, err = run(t, "config", "--results-db", "elsewhere.db")
	require.NoError(t, err)
	assert.Contains(t, out, "results_db: elsewhere.db")
	assert.Contains(t, out, "grid_size: 50")
	assert.Contains(t, out, "log_level: error")
}

func c2db(t *testing.T) string {
	t.Helper()
	return testutil.C2DB(t, testutil.MoS2(1, "1MoS2-1"), testutil.MoS2(2, "1MoS2-2"))
}

func TestSearch_ByUIDWithStructures(t *testing.T) {
	dir := isolate(t)
	database := c2db(t)
	structures := filepath.Join(dir, "structures")

	out, stderr, err := run(t, "search", "--database", database, "--uid", "1MoS2-1", "--grid", "12", "--structures", structures)
	require.NoError(t, err)
	assert.Contains(t, out, "Material: MoS2 (1MoS2-1), 3 atoms")
	assert.Contains(t, out, "Layer group: p-6m2")
	assert.Contains(t, out, "Interlayer distance: 3.10 Å")
	assert.Contains(t, stderr, "structures to")

	for _, name := range []string{"1MoS2-1_monolayer.vasp", "1MoS2-1_AA.vasp", "1MoS2-1_AB.vasp", "1MoS2-1_BA.vasp"} {
		_, err := os.Stat(filepath.Join(structures, name))
		assert.NoError(t, err, name)
	}
}

func TestSearch_Formula(t *testing.T) {
	isolate(t)
	database := c2db(t)

	_, stderr, err := run(t, "search", "--database", database, "--formula", "MoS2", "--grid", "8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
	assert.Contains(t, stderr, "1MoS2-2")

	out, _, err := run(t, "search", "--database", database, "--formula", "MoS2", "--grid", "8", "--auto-select")
	require.NoError(t, err)
	assert.Contains(t, out, "(1MoS2-1)")

	_, _, err = run(t, "search", "--database", database, "--formula", "Xx", "--grid", "8")
	assert.ErrorIs(t, err, material.ErrMaterialNotFound)

	_, _, err = run(t, "search", "--database", database)
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	isolate(t)
	database := c2db(t)

	out, _, err := run(t, "list", "--database", database, "--formula", "MoS2")
	require.NoError(t, err)
	assert.Contains(t, out, "1MoS2-1")
	assert.Contains(t, out, "1MoS2-2")

	out, _, err = run(t, "list", "--database", database, "--layer-groups")
	require.NoError(t, err)
	assert.Contains(t, out, "p-6m2")

	out, _, err = run(t, "list", "--database", database, "--layer-group", "pmmn")
	require.NoError(t, err)
	assert.Contains(t, out, "No materials found.")
}
