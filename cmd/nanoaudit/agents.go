package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coffersTech/nanoaudit/internal/config"
	"github.com/coffersTech/nanoaudit/internal/engine"
	"github.com/coffersTech/nanoaudit/internal/registry"
	"github.com/coffersTech/nanoaudit/internal/render"
)

func newAgentsCommand(opts *config.Options, logLevel *string) *cobra.Command {
	var active time.Duration
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List capture agents with their record and finding counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts, logLevel, func(ctx context.Context, a *app) error {
				return runAgents(ctx, a, active)
			})
		},
	}
	cmd.Flags().DurationVar(&active, "active", active, "Only agents with a record within this window (0 lists all)")
	return cmd
}

func runAgents(ctx context.Context, a *app, active time.Duration) error {
	store := registry.NewStore()
	if !a.fromSnapshot() {
		agents, err := a.client().Agents(ctx)
		if err != nil {
			return err
		}
		for _, ag := range agents {
			store.RegisterOrUpdate(ag)
		}
	}
	records, err := a.records(ctx, "")
	if err != nil {
		return err
	}
	store.Observe(records)
	if active > 0 {
		if n := store.PruneStaleAgents(active); n > 0 {
			a.logger.Debug("hid inactive agents", zap.Int("count", n), zap.Duration("window", active))
		}
	}

	table, err := engine.NewTable(store.ListAgents(), registry.Columns(), engine.WithLogger(a.logger))
	if err != nil {
		return err
	}
	return render.WriteTable(a.render, a.out, table)
}
