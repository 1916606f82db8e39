package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coffersTech/nanoaudit/internal/config"
	"github.com/coffersTech/nanoaudit/internal/engine"
	"github.com/coffersTech/nanoaudit/internal/model"
)

func newShowCommand(opts *config.Options, logLevel *string) *cobra.Command {
	var around int
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record with the lines its findings point at highlighted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts, logLevel, func(ctx context.Context, a *app) error {
				return runShow(ctx, a, args[0], around)
			})
		},
	}
	cmd.Flags().IntVarP(&around, "context", "C", around, "Also list this many records before and after, by time")
	return cmd
}

func runShow(ctx context.Context, a *app, id string, around int) error {
	if around <= 0 && !a.fromSnapshot() {
		rec, err := a.client().Log(ctx, id)
		if err != nil {
			return err
		}
		return a.println(a.render.Record(rec))
	}

	records, err := a.records(ctx, "")
	if err != nil {
		return err
	}
	view, err := a.view(records)
	if err != nil {
		return err
	}
	if around <= 0 {
		rec, ok := view.Record(id)
		if !ok {
			return fmt.Errorf("%w: %q", engine.ErrUnknownRow, id)
		}
		return a.println(a.render.Record(rec))
	}

	res, err := view.Context(id, around)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(a.render.Record(res.Anchor))
	b.WriteString("\n\n")
	b.WriteString(a.render.Section("Before"))
	b.WriteString("\n")
	writeContextLines(&b, res.Pre)
	b.WriteString(a.render.Section("After"))
	b.WriteString("\n")
	writeContextLines(&b, res.Post)
	return a.println(strings.TrimRight(b.String(), "\n"))
}

func writeContextLines(b *strings.Builder, records []model.LogRecord) {
	if len(records) == 0 {
		b.WriteString("  -\n")
		return
	}
	for _, r := range records {
		summary := string(r.Kind())
		if h, ok := r.HTTP(); ok {
			summary = h.Method + " " + h.RequestURL
		} else if t, ok := r.Transport(); ok {
			summary += " " + string(t.Direction)
		}
		fmt.Fprintf(b, "  %s  %s  %s  findings=%d\n", engine.FormatTimestamp(r.Timestamp), r.ID, summary, len(r.Findings()))
	}
}
