package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/sympol2d/internal/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate {" + strings.Join(db.MigrateActions, "|") + "} [VERSION]",
		Short: "Manage the results database schema",
		Long: "Manage the results database schema.\n\n" +
			"  up        apply all pending migrations\n" +
			"  down      roll back one migration\n" +
			"  status    show the current and latest versions\n" +
			"  version N migrate up or down to version N\n" +
			"  force N   mark version N as applied without running it",
		ValidArgs: db.MigrateActions,
		Args:      cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.OpenDB(a.cfg.GetResultsDB())
			if err != nil {
				return err
			}
			defer database.Close()
			if err := db.RunMigrateCommand(cmd.OutOrStdout(), database, db.MigrationsFS(), args[0], args[1:]); err != nil {
				return fmt.Errorf("migrate %s: %w", args[0], err)
			}
			return nil
		},
	}
}
