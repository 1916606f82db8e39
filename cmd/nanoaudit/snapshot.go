package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffersTech/nanoaudit/internal/config"
	"github.com/coffersTech/nanoaudit/internal/engine"
	"github.com/coffersTech/nanoaudit/internal/storage"
)

func newSnapshotCommand(opts *config.Options, logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save fetched records to a file for offline review",
	}
	save := &cobra.Command{
		Use:   "save <file>",
		Short: "Fetch every record and write a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts, logLevel, func(ctx context.Context, a *app) error {
				records, err := a.records(ctx, "")
				if err != nil {
					return err
				}
				writer, err := storage.NewSnapshotWriter()
				if err != nil {
					return err
				}
				defer writer.Close()
				if err := writer.WriteSnapshot(args[0], records); err != nil {
					return err
				}
				return a.println(fmt.Sprintf("wrote %d records to %s", len(records), args[0]))
			})
		},
	}
	info := &cobra.Command{
		Use:   "info <file>",
		Short: "Print the record count and time range of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			footer, err := storage.ReadFooter(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "records: %d\n", footer.RowCount)
			if footer.RowCount > 0 {
				fmt.Fprintf(out, "from:    %s\n", engine.FormatTimestamp(footer.MinTs))
				fmt.Fprintf(out, "to:      %s\n", engine.FormatTimestamp(footer.MaxTs))
			}
			return nil
		},
	}
	cmd.AddCommand(save, info)
	return cmd
}
