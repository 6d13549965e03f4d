// Package config holds sympol2d's runtime settings. Values come from an
// optional sympol2d.{yaml,json,toml} file, SYMPOL2D_* environment
// variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/banshee-data/sympol2d/internal/material"
	"github.com/banshee-data/sympol2d/internal/stacking"
)

// EnvPrefix prefixes every environment override, e.g. SYMPOL2D_GRID_SIZE.
const EnvPrefix = "SYMPOL2D"

// Defaults for unset fields.
const (
	DefaultGridSize    = 50
	DefaultVacuum      = 10.0
	DefaultDatabase    = "c2db.db"
	DefaultResultsDB   = "sympol2d.db"
	DefaultListen      = ":8080"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultTopPairs    = 3
	DefaultScanTimeout = 30 * time.Second
)

// Config is the full set of settings. Nil fields fall back to the
// defaults returned by the Get* methods, so partial files are safe.
type Config struct {
	GridSize           *int     `mapstructure:"grid_size" yaml:"grid_size,omitempty" json:"grid_size,omitempty"`
	ToleranceFactor    *float64 `mapstructure:"tolerance_factor" yaml:"tolerance_factor,omitempty" json:"tolerance_factor,omitempty"`
	MinGridSize        *int     `mapstructure:"min_grid_size" yaml:"min_grid_size,omitempty" json:"min_grid_size,omitempty"`
	MaxGridSize        *int     `mapstructure:"max_grid_size" yaml:"max_grid_size,omitempty" json:"max_grid_size,omitempty"`
	Workers            *int     `mapstructure:"workers" yaml:"workers,omitempty" json:"workers,omitempty"`
	InterlayerDistance *float64 `mapstructure:"interlayer_distance" yaml:"interlayer_distance,omitempty" json:"interlayer_distance,omitempty"`
	Vacuum             *float64 `mapstructure:"vacuum" yaml:"vacuum,omitempty" json:"vacuum,omitempty"`

	Database    *string `mapstructure:"database" yaml:"database,omitempty" json:"database,omitempty"`
	ResultsDB   *string `mapstructure:"results_db" yaml:"results_db,omitempty" json:"results_db,omitempty"`
	CatalogFile *string `mapstructure:"catalog_file" yaml:"catalog_file,omitempty" json:"catalog_file,omitempty"`

	Listen      *string `mapstructure:"listen" yaml:"listen,omitempty" json:"listen,omitempty"`
	ScanTimeout *string `mapstructure:"scan_timeout" yaml:"scan_timeout,omitempty" json:"scan_timeout,omitempty"` // duration string like "30s"
	TopPairs    *int    `mapstructure:"top_pairs" yaml:"top_pairs,omitempty" json:"top_pairs,omitempty"`

	LogLevel  *string `mapstructure:"log_level" yaml:"log_level,omitempty" json:"log_level,omitempty"`
	LogFormat *string `mapstructure:"log_format" yaml:"log_format,omitempty" json:"log_format,omitempty"`

	source string
}

// Keys lists every configuration key.
var Keys = []string{
	"grid_size", "tolerance_factor", "min_grid_size", "max_grid_size", "workers",
	"interlayer_distance", "vacuum", "database", "results_db", "catalog_file",
	"listen", "scan_timeout", "top_pairs", "log_level", "log_format",
}

// flagAliases maps command-line flag names that differ from their key.
var flagAliases = map[string]string{
	"grid":    "grid_size",
	"top":     "top_pairs",
	"catalog": "catalog_file",
}

// FlagKey returns the configuration key a flag name sets, or "" when the
// flag is not a configuration flag.
func FlagKey(name string) string {
	if k, ok := flagAliases[name]; ok {
		return k
	}
	k := strings.ReplaceAll(name, "-", "_")
	for _, known := range Keys {
		if k == known {
			return k
		}
	}
	return ""
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// Load reads the configuration. An explicit path must exist; otherwise
// sympol2d.* is looked up in the working directory and the user's home,
// and a missing file is not an error. Flags in flags that were set on the
// command line and name a key (see FlagKey) override every other source;
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for _, k := range Keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}
	if flags != nil {
		var bindErr error
		flags.Visit(func(f *pflag.Flag) {
			if key := FlagKey(f.Name); key != "" && bindErr == nil {
				bindErr = v.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("sympol2d")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.source = v.ConfigFileUsed()
	return cfg, nil
}

// Source is the config file that was read, or "" when none was.
func (c *Config) Source() string { return c.source }

// Validate checks every set field.
func (c *Config) Validate() error {
	if c.ToleranceFactor != nil && (*c.ToleranceFactor <= 0 || *c.ToleranceFactor > 1) {
		return fmt.Errorf("tolerance_factor must be in (0, 1], got %g", *c.ToleranceFactor)
	}
	if c.MinGridSize != nil && *c.MinGridSize < 2 {
		return fmt.Errorf("min_grid_size must be at least 2, got %d", *c.MinGridSize)
	}
	if c.GetMaxGridSize() < c.GetMinGridSize() {
		return fmt.Errorf("max_grid_size %d is below min_grid_size %d", c.GetMaxGridSize(), c.GetMinGridSize())
	}
	if n := c.GetGridSize(); n < c.GetMinGridSize() || n > c.GetMaxGridSize() {
		return fmt.Errorf("%w: grid_size %d outside [%d, %d]", stacking.ErrInvalidGridSize, n, c.GetMinGridSize(), c.GetMaxGridSize())
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.InterlayerDistance != nil && *c.InterlayerDistance <= 0 {
		return fmt.Errorf("interlayer_distance must be positive, got %g", *c.InterlayerDistance)
	}
	if c.Vacuum != nil && *c.Vacuum < 0 {
		return fmt.Errorf("vacuum must be non-negative, got %g", *c.Vacuum)
	}
	if c.TopPairs != nil && *c.TopPairs < 0 {
		return fmt.Errorf("top_pairs must be non-negative, got %d", *c.TopPairs)
	}
	if c.ScanTimeout != nil {
		d, err := time.ParseDuration(*c.ScanTimeout)
		if err != nil {
			return fmt.Errorf("invalid scan_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("scan_timeout must be positive, got %s", d)
		}
	}
	switch c.GetLogLevel() {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.GetLogLevel())
	}
	switch c.GetLogFormat() {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.GetLogFormat())
	}
	return nil
}

func (c *Config) GetGridSize() int {
	if c.GridSize == nil {
		return DefaultGridSize
	}
	return *c.GridSize
}

func (c *Config) GetToleranceFactor() float64 {
	if c.ToleranceFactor == nil {
		return stacking.DefaultToleranceFactor
	}
	return *c.ToleranceFactor
}

func (c *Config) GetMinGridSize() int {
	if c.MinGridSize == nil {
		return stacking.DefaultMinGridSize
	}
	return *c.MinGridSize
}

func (c *Config) GetMaxGridSize() int {
	if c.MaxGridSize == nil {
		return stacking.DefaultMaxGridSize
	}
	return *c.MaxGridSize
}

// GetWorkers returns 0 when unset, meaning GOMAXPROCS.
func (c *Config) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetInterlayerDistance returns the configured gap and whether one was
// set. Callers estimate it from the composition otherwise.
func (c *Config) GetInterlayerDistance() (float64, bool) {
	if c.InterlayerDistance == nil {
		return material.DefaultInterlayerDistance, false
	}
	return *c.InterlayerDistance, true
}

func (c *Config) GetVacuum() float64 {
	if c.Vacuum == nil {
		return DefaultVacuum
	}
	return *c.Vacuum
}

func (c *Config) GetDatabase() string {
	if c.Database == nil || *c.Database == "" {
		return DefaultDatabase
	}
	return *c.Database
}

func (c *Config) GetResultsDB() string {
	if c.ResultsDB == nil || *c.ResultsDB == "" {
		return DefaultResultsDB
	}
	return *c.ResultsDB
}

// GetCatalogFile returns "" when only the built-in catalog is used.
func (c *Config) GetCatalogFile() string {
	if c.CatalogFile == nil {
		return ""
	}
	return *c.CatalogFile
}

func (c *Config) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return DefaultListen
	}
	return *c.Listen
}

// GetScanTimeout returns the per-request scan deadline. Invalid values
// fall back to the default; Validate reports them.
func (c *Config) GetScanTimeout() time.Duration {
	if c.ScanTimeout == nil {
		return DefaultScanTimeout
	}
	d, err := time.ParseDuration(*c.ScanTimeout)
	if err != nil || d <= 0 {
		return DefaultScanTimeout
	}
	return d
}

func (c *Config) GetTopPairs() int {
	if c.TopPairs == nil {
		return DefaultTopPairs
	}
	return *c.TopPairs
}

func (c *Config) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return DefaultLogLevel
	}
	return strings.ToLower(*c.LogLevel)
}

func (c *Config) GetLogFormat() string {
	if c.LogFormat == nil || *c.LogFormat == "" {
		return DefaultLogFormat
	}
	return strings.ToLower(*c.LogFormat)
}

// ScannerOptions maps the grid settings onto stacking.Options.
func (c *Config) ScannerOptions() stacking.Options {
	return stacking.Options{
		ToleranceFactor: c.GetToleranceFactor(),
		MinGridSize:     c.GetMinGridSize(),
		MaxGridSize:     c.GetMaxGridSize(),
		Workers:         c.GetWorkers(),
	}
}

// Effective returns a copy with every unset field filled in from its
// default, for display.
func (c *Config) Effective() *Config {
	out := Defaults()
	out.Workers = ptrInt(c.GetWorkers())
	out.GridSize = ptrInt(c.GetGridSize())
	out.ToleranceFactor = ptrFloat64(c.GetToleranceFactor())
	out.MinGridSize = ptrInt(c.GetMinGridSize())
	out.MaxGridSize = ptrInt(c.GetMaxGridSize())
	if d, ok := c.GetInterlayerDistance(); ok {
		out.InterlayerDistance = ptrFloat64(d)
	}
	out.Vacuum = ptrFloat64(c.GetVacuum())
	out.Database = ptrString(c.GetDatabase())
	out.ResultsDB = ptrString(c.GetResultsDB())
	out.CatalogFile = ptrString(c.GetCatalogFile())
	out.Listen = ptrString(c.GetListen())
	out.ScanTimeout = ptrString(c.GetScanTimeout().String())
	out.TopPairs = ptrInt(c.GetTopPairs())
	out.LogLevel = ptrString(c.GetLogLevel())
	out.LogFormat = ptrString(c.GetLogFormat())
	return out
}

// Defaults returns a Config with every field set to its default.
func Defaults() *Config {
	return &Config{
		GridSize:        ptrInt(DefaultGridSize),
		ToleranceFactor: ptrFloat64(stacking.DefaultToleranceFactor),
		MinGridSize:     ptrInt(stacking.DefaultMinGridSize),
		MaxGridSize:     ptrInt(stacking.DefaultMaxGridSize),
		Vacuum:          ptrFloat64(DefaultVacuum),
		Database:        ptrString(DefaultDatabase),
		ResultsDB:       ptrString(DefaultResultsDB),
		Listen:          ptrString(DefaultListen),
		ScanTimeout:     ptrString(DefaultScanTimeout.String()),
		TopPairs:        ptrInt(DefaultTopPairs),
		LogLevel:        ptrString(DefaultLogLevel),
		LogFormat:       ptrString(DefaultLogFormat),
	}
}
