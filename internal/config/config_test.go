package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sympol2d/internal/stacking"
)

// isolate moves the test into an empty directory with an empty home so no
// stray sympol2d.* file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Source())
	assert.Equal(t, DefaultGridSize, cfg.GetGridSize())
	assert.Equal(t, stacking.DefaultToleranceFactor, cfg.GetToleranceFactor())
	assert.Equal(t, DefaultDatabase, cfg.GetDatabase())
	assert.Equal(t, DefaultResultsDB, cfg.GetResultsDB())
	assert.Equal(t, DefaultListen, cfg.GetListen())
	assert.Equal(t, DefaultScanTimeout, cfg.GetScanTimeout())
	assert.Equal(t, DefaultTopPairs, cfg.GetTopPairs())
	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.Equal(t, "console", cfg.GetLogFormat())
	assert.Equal(t, "", cfg.GetCatalogFile())
	d, set := cfg.GetInterlayerDistance()
	assert.False(t, set)
	assert.InDelta(t, 3.1, d, 1e-12)
}

func TestLoad_YAML(t *testing.T) {
	dir := isolate(t)
	p := writeFile(t, dir, "custom.yaml", `
grid_size: 30
tolerance_factor: 0.25
interlayer_distance: 3.4
top_pairs: 5
scan_timeout: 2m
log_level: DEBUG
`)
	cfg, err := Load(p, nil)
	require.NoError(t, err)
	assert.Equal(t, p, cfg.Source())
	assert.Equal(t, 30, cfg.GetGridSize())
	assert.Equal(t, 0.25, cfg.GetToleranceFactor())
	d, set := cfg.GetInterlayerDistance()
	assert.True(t, set)
	assert.Equal(t, 3.4, d)
	assert.Equal(t, 5, cfg.GetTopPairs())
	assert.Equal(t, 2*time.Minute, cfg.GetScanTimeout())
	assert.Equal(t, "debug", cfg.GetLogLevel())
}

func TestLoad_JSON(t *testing.T) {
	dir := isolate(t)
	p := writeFile(t, dir, "custom.json", `{"database": "/data/c2db.db", "listen": "127.0.0.1:9000", "workers": 2}`)
	cfg, err := Load(p, nil)
	require.NoError(t, err)
	assert.Equal(t, "/data/c2db.db", cfg.GetDatabase())
	assert.Equal(t, "127.0.0.1:9000", cfg.GetListen())
	assert.Equal(t, 2, cfg.GetWorkers())
	assert.Equal(t, DefaultGridSize, cfg.GetGridSize())
}

func TestLoad_TOMLDiscovered(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "sympol2d.toml", "grid_size = 12\nlog_format = \"json\"\n")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.GetGridSize())
	assert.Equal(t, "json", cfg.GetLogFormat())
	assert.NotEmpty(t, cfg.Source())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	p := writeFile(t, dir, "custom.yaml", "grid_size: 30\n")
	t.Setenv("SYMPOL2D_GRID_SIZE", "40")
	t.Setenv("SYMPOL2D_RESULTS_DB", "/tmp/runs.db")

	cfg, err := Load(p, nil)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.GetGridSize())
	assert.Equal(t, "/tmp/runs.db", cfg.GetResultsDB())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := isolate(t)
	p := writeFile(t, dir, "bad.yaml", "grid_size: 1\n")
	_, err := Load(p, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid_size")
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"defaults", *Defaults(), false},
		{"grid below min", Config{GridSize: ptrInt(1)}, true},
		{"grid above max", Config{GridSize: ptrInt(20), MaxGridSize: ptrInt(10)}, true},
		{"min below 2", Config{MinGridSize: ptrInt(1)}, true},
		{"max below min", Config{MinGridSize: ptrInt(10), MaxGridSize: ptrInt(5), GridSize: ptrInt(7)}, true},
		{"zero tolerance", Config{ToleranceFactor: ptrFloat64(0)}, true},
		{"tolerance above one", Config{ToleranceFactor: ptrFloat64(1.5)}, true},
		{"tolerance one", Config{ToleranceFactor: ptrFloat64(1)}, false},
		{"negative workers", Config{Workers: ptrInt(-1)}, true},
		{"zero distance", Config{InterlayerDistance: ptrFloat64(0)}, true},
		{"negative vacuum", Config{Vacuum: ptrFloat64(-1)}, true},
		{"negative top", Config{TopPairs: ptrInt(-1)}, true},
		{"bad timeout", Config{ScanTimeout: ptrString("soon")}, true},
		{"zero timeout", Config{ScanTimeout: ptrString("0s")}, true},
		{"bad level", Config{LogLevel: ptrString("trace")}, true},
		{"bad format", Config{LogFormat: ptrString("xml")}, true},
		{"upper-case level", Config{LogLevel: ptrString("WARN")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_GridSizeKind(t *testing.T) {
	for _, cfg := range []Config{
		{GridSize: ptrInt(1)},
		{GridSize: ptrInt(20), MaxGridSize: ptrInt(10)},
	} {
		assert.ErrorIs(t, cfg.Validate(), stacking.ErrInvalidGridSize)
	}
	assert.NotErrorIs(t, (&Config{Workers: ptrInt(-1)}).Validate(), stacking.ErrInvalidGridSize)

	p := writeFile(t, isolate(t), "grid.yaml", "grid_size: 1\n")
	_, err := Load(p, nil)
	assert.ErrorIs(t, err, stacking.ErrInvalidGridSize)
}

func TestScannerOptions(t *testing.T) {
	t.Parallel()
	cfg := &Config{ToleranceFactor: ptrFloat64(0.3), MaxGridSize: ptrInt(200), Workers: ptrInt(3)}
	got := cfg.ScannerOptions()
	assert.Equal(t, stacking.Options{
		ToleranceFactor: 0.3,
		MinGridSize:     stacking.DefaultMinGridSize,
		MaxGridSize:     200,
		Workers:         3,
	}, got)
}

func TestGetScanTimeout_InvalidFallsBack(t *testing.T) {
	t.Parallel()
	cfg := &Config{ScanTimeout: ptrString("never")}
	assert.Equal(t, DefaultScanTimeout, cfg.GetScanTimeout())
}

func TestLoad_FlagsOverrideEnvAndFile(t *testing.T) {
	dir := isolate(t)
	p := writeFile(t, dir, "custom.yaml", "grid_size: 30\ntop_pairs: 4\n")
	t.Setenv("SYMPOL2D_GRID_SIZE", "40")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("grid", DefaultGridSize, "")
	flags.Int("top", DefaultTopPairs, "")
	flags.String("log-level", DefaultLogLevel, "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--grid", "60", "--log-level", "warn", "--verbose"}))

	cfg, err := Load(p, flags)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.GetGridSize())
	assert.Equal(t, 4, cfg.GetTopPairs(), "unset flags must not shadow the file")
	assert.Equal(t, "warn", cfg.GetLogLevel())
}

func TestFlagKey(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]string{
		"grid":                "grid_size",
		"top":                 "top_pairs",
		"catalog":             "catalog_file",
		"results-db":          "results_db",
		"interlayer-distance": "interlayer_distance",
		"verbose":             "",
		"uid":                 "",
	} {
		assert.Equal(t, want, FlagKey(name), name)
	}
}

func TestEffective(t *testing.T) {
	t.Parallel()
	cfg := &Config{GridSize: ptrInt(24), InterlayerDistance: ptrFloat64(3.3)}
	eff := cfg.Effective()
	assert.Equal(t, 24, *eff.GridSize)
	assert.Equal(t, 3.3, *eff.InterlayerDistance)
	assert.Equal(t, DefaultListen, *eff.Listen)
	assert.Equal(t, "30s", *eff.ScanTimeout)
	assert.NoError(t, eff.Validate())

	assert.Nil(t, (&Config{}).Effective().InterlayerDistance)
}
