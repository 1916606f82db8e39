package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coffersTech/nanoaudit/internal/config"
	"github.com/coffersTech/nanoaudit/internal/engine"
	"github.com/coffersTech/nanoaudit/internal/model"
	"github.com/coffersTech/nanoaudit/internal/render"
)

type logsFlags struct {
	kind      string
	sort      string
	filter    string
	query     string
	hide      []string
	selectIDs []string
	selectAll bool
	page      int
	output    string
}

func newLogsCommand(opts *config.Options, logLevel *string) *cobra.Command {
	f := &logsFlags{page: 1, output: "table"}
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List records as a sortable, filterable table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts, logLevel, func(ctx context.Context, a *app) error {
				return runLogs(ctx, a, f)
			})
		},
	}
	cmd.Flags().StringVar(&f.kind, "kind", f.kind, "Only records of this kind (http or tcp)")
	cmd.Flags().StringVar(&f.sort, "sort", f.sort, "Sort column, optionally with direction: col[:asc|desc]")
	cmd.Flags().StringVar(&f.filter, "filter", f.filter, "Column filter col=value (bare value filters the default column)")
	cmd.Flags().StringVarP(&f.query, "query", "q", f.query, "NanoQL query, e.g. 'httpMethod:POST AND severity>=3'")
	cmd.Flags().StringSliceVar(&f.hide, "hide", f.hide, "Columns to hide")
	cmd.Flags().StringSliceVar(&f.selectIDs, "select", f.selectIDs, "Mark records by id")
	cmd.Flags().BoolVar(&f.selectAll, "select-all", f.selectAll, "Mark every record passing the filter and query")
	cmd.Flags().IntVar(&f.page, "page", f.page, "Page to show (1-based)")
	cmd.Flags().StringVarP(&f.output, "output", "o", f.output, "Output format: table, json or ids")
	return cmd
}

func runLogs(ctx context.Context, a *app, f *logsFlags) error {
	var kind model.ProtocolKind
	if f.kind != "" {
		k, err := model.ParseProtocolKind(f.kind)
		if err != nil {
			return err
		}
		kind = k
	}
	records, err := a.records(ctx, kind)
	if err != nil {
		return err
	}
	view, err := a.view(records)
	if err != nil {
		return err
	}
	table := view.Table()
	if err := applyTableFlags(table, f, a.opts.DefaultColumn); err != nil {
		return err
	}

	switch f.output {
	case "table", "":
		return render.WriteTable(a.render, a.out, table)
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(table.PageRows())
	case "ids":
		// a selection prints in view order, across pages; otherwise the page
		var ids []string
		if len(table.SelectedIDs()) > 0 {
			for _, r := range table.GetVisibleRows() {
				if table.IsSelected(r.ID) {
					ids = append(ids, r.ID)
				}
			}
		} else {
			for _, r := range table.PageRows() {
				ids = append(ids, r.ID)
			}
		}
		for _, id := range ids {
			if err := a.println(id); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q (expected table, json, or ids)", f.output)
}

// applyTableFlags replays the command-line view state onto the table.
func applyTableFlags(t *engine.Table[model.LogRecord], f *logsFlags, defaultColumn string) error {
	if f.query != "" {
		if err := t.SetQuery(f.query); err != nil {
			return err
		}
	}
	if f.filter != "" {
		col, value, ok := strings.Cut(f.filter, "=")
		if !ok {
			col, value = defaultColumn, f.filter
		}
		if err := t.SetFilter(col, value); err != nil {
			return err
		}
	}
	if f.sort != "" {
		col, dir, _ := strings.Cut(f.sort, ":")
		if dir == "" {
			dir = "asc"
		}
		d, err := engine.ParseSortDirection(dir)
		if err != nil {
			return err
		}
		if err := t.SetSortDirection(col, d); err != nil {
			return err
		}
	}
	for _, id := range f.hide {
		if err := t.ToggleColumn(id); err != nil {
			return err
		}
	}
	for _, id := range f.selectIDs {
		if err := t.ToggleSelect(id); err != nil {
			return err
		}
	}
	if f.selectAll {
		t.SelectAll()
	}
	t.SetPage(f.page - 1)
	return nil
}
