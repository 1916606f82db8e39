package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coffersTech/nanoaudit/internal/config"
)

func newStatsCommand(opts *config.Options, logLevel *string) *cobra.Command {
	interval := time.Minute
	var query string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Method chart, transport directions, summary and a record histogram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts, logLevel, func(ctx context.Context, a *app) error {
				return runStats(ctx, a, interval, query)
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", interval, "Histogram bucket width")
	cmd.Flags().StringVarP(&query, "query", "q", query, "NanoQL query restricting the histogram")
	return cmd
}

func runStats(ctx context.Context, a *app, interval time.Duration, query string) error {
	if interval < time.Second {
		return fmt.Errorf("invalid interval %s: must be at least 1s", interval)
	}
	records, err := a.records(ctx, "")
	if err != nil {
		return err
	}
	view, err := a.view(records)
	if err != nil {
		return err
	}

	methods := view.Methods()
	if !a.fromSnapshot() {
		if methods, err = a.client().MethodStats(ctx); err != nil {
			return err
		}
	}
	points, err := view.Histogram(int64(interval/time.Second), query)
	if err != nil {
		return err
	}

	for _, block := range []string{
		a.render.MethodChart(methods),
		a.render.Directions(view.Directions()),
		a.render.Summary(view.Summary()),
		a.render.Histogram(points),
	} {
		if err := a.println(block + "\n"); err != nil {
			return err
		}
	}
	return nil
}
