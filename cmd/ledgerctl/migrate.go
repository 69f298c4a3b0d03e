package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"staffledger/internal/store"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|version",
		Short:     "Apply or inspect the database schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			version, dirty, err := store.Migrate(a.cfg.DatabaseURL, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%v)\n", version, dirty)
			return nil
		},
	}
}
