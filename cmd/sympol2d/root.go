package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/sympol2d/internal/config"
	"github.com/banshee-data/sympol2d/internal/monitoring"
	"github.com/banshee-data/sympol2d/internal/symmetry"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sympol2d",
		Short: "Bilayer stacking symmetry and polarisation screener",
		Long: "sympol2d scans the in-plane shifts of a 2D bilayer, classifies each stacking by the\n" +
			"symmetries it preserves and its polarisation direction, and pairs the inversion-related\n" +
			"AB/BA stackings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./sympol2d.yaml or ~/sympol2d.yaml)")
	pf.String("database", config.DefaultDatabase, "c2db sqlite database")
	pf.String("results-db", config.DefaultResultsDB, "results sqlite database")
	pf.String("catalog", "", "layer-group catalog YAML (default built-in)")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pf.String("log-format", config.DefaultLogFormat, "log format: console, json")

	root.AddCommand(
		newSearchCmd(a),
		newScanCmd(a),
		newListCmd(a),
		newGroupsCmd(a),
		newServeCmd(a),
		newMigrateCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// initConfig loads the configuration with the flags set on cmd and its
// parents layered on top, then configures logging.
func (a *app) initConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := monitoring.Configure(cfg.GetLogLevel(), cfg.GetLogFormat()); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	if src := cfg.Source(); src != "" {
		monitoring.Debugf("using config file %s", src)
	}
	a.cfg = cfg
	return nil
}

// catalog loads the configured catalog, or the built-in one.
func (a *app) catalog() (*symmetry.Catalog, error) {
	path := a.cfg.GetCatalogFile()
	if path == "" {
		return symmetry.Builtin(), nil
	}
	return symmetry.LoadCatalogFile(path)
}
