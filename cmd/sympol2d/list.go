package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/sympol2d/internal/material"
)

func newListCmd(a *app) *cobra.Command {
	var (
		formula     string
		layerGroup  string
		layerGroups bool
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List materials in the c2db database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mdb, err := material.Open(a.cfg.GetDatabase())
			if err != nil {
				return err
			}
			defer mdb.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if layerGroups {
				counts, err := mdb.LayerGroups()
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "LAYER GROUP\tMATERIALS")
				for _, c := range counts {
					fmt.Fprintf(tw, "%s\t%d\n", c.LayerGroup, c.Count)
				}
				return tw.Flush()
			}

			hits, err := mdb.Search(formula, layerGroup, limit)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No materials found.")
				return nil
			}
			fmt.Fprintln(tw, "UID\tFORMULA\tLAYER GROUP")
			for _, h := range hits {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", h.UID, h.Formula, h.LayerGroup)
			}
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&formula, "formula", "", "only materials whose uid contains this formula")
	f.StringVar(&layerGroup, "layer-group", "", "only materials in this layer group")
	f.BoolVar(&layerGroups, "layer-groups", false, "show the number of materials per layer group instead")
	f.IntVar(&limit, "limit", 20, "maximum materials listed")
	return cmd
}

func newGroupsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the layer groups of the symmetry catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LAYER GROUP\tOPS\tPZ FLIPS\tOPERATIONS")
			for _, label := range cat.Labels() {
				g, err := cat.Group(label)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\t%v\t%s\n", label, len(g.Operations), g.ZSignFlip, strings.Join(g.OperationNames(), " "))
			}
			return tw.Flush()
		},
	}
}
