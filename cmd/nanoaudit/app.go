package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coffersTech/nanoaudit/internal/client"
	"github.com/coffersTech/nanoaudit/internal/config"
	"github.com/coffersTech/nanoaudit/internal/engine"
	"github.com/coffersTech/nanoaudit/internal/logging"
	"github.com/coffersTech/nanoaudit/internal/model"
	"github.com/coffersTech/nanoaudit/internal/render"
	"github.com/coffersTech/nanoaudit/internal/storage"
)

// app carries what every command needs once flags are resolved.
type app struct {
	opts   *config.Options
	logger *zap.Logger
	out    io.Writer
	render *render.Renderer
}

func newApp(cmd *cobra.Command, opts *config.Options, logLevel string) (*app, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(logLevel)
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	return &app{
		opts:   opts,
		logger: logger,
		out:    out,
		render: render.New(out, render.Options{
			Color:      useColor(opts.ColorMode),
			Style:      opts.Style,
			Marker:     opts.HighlightMarker,
			BadgeLimit: opts.BadgeLimit,
			Logger:     logger,
		}),
	}, nil
}

// runApp builds the app and runs fn with the command context.
func runApp(cmd *cobra.Command, opts *config.Options, logLevel *string, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd, opts, *logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()
	return fn(cmd.Context(), a)
}

func useColor(mode string) bool {
	switch strings.ToLower(mode) {
	case "always":
		color.NoColor = false
		return true
	case "never":
		color.NoColor = true
		return false
	default:
		return !color.NoColor
	}
}

func (a *app) decoder() *model.Decoder {
	return &model.Decoder{Lenient: a.opts.LenientRecords, Logger: a.logger}
}

func (a *app) client() *client.Client {
	opts := []client.Option{
		client.WithToken(a.opts.Token),
		client.WithTimeout(a.opts.Timeout),
		client.WithLogger(a.logger),
		client.WithDecoder(a.decoder()),
	}
	if a.opts.PartialResults {
		opts = append(opts, client.WithPartialResults())
	}
	return client.New(a.opts.Backends, opts...)
}

func (a *app) fromSnapshot() bool { return a.opts.Snapshot != "" }

func (a *app) readSnapshot() ([]model.LogRecord, error) {
	reader, err := storage.NewSnapshotReader(a.decoder())
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	records, err := reader.ReadSnapshot(a.opts.Snapshot)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded snapshot", zap.String("file", a.opts.Snapshot), zap.Int("records", len(records)))
	return records, nil
}

// records loads the collection, optionally restricted to one kind.
func (a *app) records(ctx context.Context, kind model.ProtocolKind) ([]model.LogRecord, error) {
	if a.fromSnapshot() {
		records, err := a.readSnapshot()
		if err != nil || kind == "" {
			return records, err
		}
		out := records[:0:0]
		for _, r := range records {
			if r.Kind() == kind {
				out = append(out, r)
			}
		}
		return out, nil
	}
	if kind == "" {
		return a.client().Logs(ctx)
	}
	return a.client().LogsByKind(ctx, kind)
}

func (a *app) view(records []model.LogRecord) (*engine.View, error) {
	return engine.NewViewWithColumns(records, engine.LogColumnsWithLimit(a.opts.BadgeLimit),
		engine.WithDefaultColumn(a.opts.DefaultColumn),
		engine.WithPageSize(a.opts.PageSize),
		engine.WithLogger(a.logger),
	)
}

func (a *app) println(s string) error {
	_, err := fmt.Fprintln(a.out, s)
	return err
}

func columnIDs() string {
	var ids []string
	for _, c := range engine.LogColumns() {
		ids = append(ids, c.ID())
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}
