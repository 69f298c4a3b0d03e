package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"staffledger/internal/attendance"
	"staffledger/internal/config"
	"staffledger/internal/logging"
	"staffledger/internal/store"
)

type app struct {
	cfg config.App
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operator tooling for the staff attendance ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat))
			return nil
		},
	}
	root.AddCommand(
		newMigrateCmd(a),
		newStaffCmd(a),
		newTokenCmd(a),
		newExportCmd(a),
	)
	return root
}

// withRepo opens a pool for the duration of fn.
func (a *app) withRepo(ctx context.Context, fn func(*attendance.Repository) error) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	pool, err := store.NewPool(ctx, a.cfg.DatabaseURL, 2)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(attendance.NewRepository(pool))
}
