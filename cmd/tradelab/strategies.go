package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List registered strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		reg, err := buildRegistry(cfg, log)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tRULE\tLOOKBACK\tFILTERS\tLOOKAHEAD")
		for _, def := range reg.List() {
			filters := strings.Join(def.FilterKinds(), ",")
			if filters == "" {
				filters = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%t\n", def.Name, def.Rule, def.Lookback, filters, def.Lookahead())
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
