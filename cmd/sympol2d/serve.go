package main

import (
	"github.com/spf13/cobra"

	"github.com/banshee-data/sympol2d/internal/api"
	"github.com/banshee-data/sympol2d/internal/config"
	"github.com/banshee-data/sympol2d/internal/db"
	"github.com/banshee-data/sympol2d/internal/material"
	"github.com/banshee-data/sympol2d/internal/monitoring"
	"github.com/banshee-data/sympol2d/internal/stacking"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scans, stored runs and polarisation maps over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			catalog, err := api.NewCatalogManager(a.cfg.GetCatalogFile())
			if err != nil {
				return err
			}
			go func() {
				if err := catalog.Watch(ctx); err != nil {
					monitoring.Warnf("catalog watcher stopped: %v", err)
				}
			}()

			results, err := db.NewDB(a.cfg.GetResultsDB())
			if err != nil {
				return err
			}
			defer results.Close()

			var materials *material.DB
			if m, err := material.Open(a.cfg.GetDatabase()); err != nil {
				monitoring.Warnf("material lookup disabled: %v", err)
			} else {
				materials = m
				defer materials.Close()
			}

			srv := api.NewServer(api.Options{
				Catalog:     catalog,
				Scanner:     stacking.NewScanner(a.cfg.ScannerOptions()),
				Results:     results,
				Materials:   materials,
				ScanTimeout: a.cfg.GetScanTimeout(),
				DefaultGrid: a.cfg.GetGridSize(),
				TopPairs:    a.cfg.GetTopPairs(),
			})
			return srv.ListenAndServe(ctx, a.cfg.GetListen())
		},
	}
	cmd.Flags().String("listen", config.DefaultListen, "HTTP listen address")
	cmd.Flags().String("scan-timeout", config.DefaultScanTimeout.String(), "deadline for one scan request")
	return cmd
}
