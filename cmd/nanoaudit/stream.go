package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/coffersTech/nanoaudit/internal/config"
	"github.com/coffersTech/nanoaudit/internal/model"
)

func newStreamCommand(opts *config.Options, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stream <stream-id>",
		Short: "Show the segments of one tcp/udp stream in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts, logLevel, func(ctx context.Context, a *app) error {
				var (
					records []model.LogRecord
					err     error
				)
				if a.fromSnapshot() {
					all, rerr := a.records(ctx, "")
					if rerr != nil {
						return rerr
					}
					view, verr := a.view(all)
					if verr != nil {
						return verr
					}
					records = view.Stream(args[0])
				} else {
					records, err = a.client().StreamLogs(ctx, args[0])
					if err != nil {
						return err
					}
				}
				return a.println(a.render.Stream(records))
			})
		},
	}
}
