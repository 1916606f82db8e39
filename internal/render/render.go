// Package render draws records, tables and charts for the terminal.
package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.uber.org/zap"

	"github.com/coffersTech/nanoaudit/internal/badge"
	"github.com/coffersTech/nanoaudit/internal/overlay"
)

// Options controls presentation.
type Options struct {
	Color      bool   // emit ANSI colours
	Style      string // chroma style for request/response text
	Marker     string // appended to highlighted lines when Color is off
	BadgeLimit int
	MaxCell    int // widest table cell, in terminal columns
	Logger     *zap.Logger
}

// Renderer writes styled output. Build one with New.
type Renderer struct {
	opts   Options
	lg     *lipgloss.Renderer
	mapper overlay.Mapper
	styles styleSet
}

// New returns a renderer writing to w.
func New(w io.Writer, opts Options) *Renderer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Style == "" {
		opts.Style = "monokai"
	}
	if opts.Marker == "" {
		opts.Marker = overlay.DefaultMarker
	}
	if opts.BadgeLimit == 0 {
		opts.BadgeLimit = badge.DefaultLimit
	}
	if opts.MaxCell <= 0 {
		opts.MaxCell = 48
	}

	lg := lipgloss.NewRenderer(w)
	if opts.Color {
		lg.SetColorProfile(termenv.ANSI256)
	} else {
		lg.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		opts:   opts,
		lg:     lg,
		mapper: overlay.Mapper{Marker: opts.Marker, Logger: opts.Logger},
		styles: newStyleSet(lg),
	}
}
