// Package config defines the flag plumbing and runtime options shared by
// nanoaudit commands, translating Cobra/Viper values into a typed struct.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Defaults.
const (
	DefaultTimeout         = 10 * time.Second
	DefaultBadgeLimit      = 3
	DefaultPageSize        = 25
	DefaultColumn          = "httpMethod"
	DefaultHighlightMarker = " // [!code highlight]"
	DefaultStyle           = "monokai"
)

// Options holds all CLI configuration.
type Options struct {
	Backends        []string
	Token           string
	Timeout         time.Duration
	PartialResults  bool
	BadgeLimit      int
	HighlightMarker string
	PageSize        int
	DefaultColumn   string
	LenientRecords  bool
	Snapshot        string
	Style           string
	ColorMode       string
}

// NewOptions returns Options with defaults applied.
func NewOptions() *Options {
	return &Options{
		Timeout:         DefaultTimeout,
		BadgeLimit:      DefaultBadgeLimit,
		HighlightMarker: DefaultHighlightMarker,
		PageSize:        DefaultPageSize,
		DefaultColumn:   DefaultColumn,
		Style:           DefaultStyle,
		ColorMode:       "auto",
	}
}

// BindFlags registers the shared flags and returns their names.
func (o *Options) BindFlags(fs *pflag.FlagSet) []string {
	var names []string
	fs.StringSliceVarP(&o.Backends, "backends", "b", o.Backends, "Backend base URLs, e.g. http://host:8080/api/v1 (repeat or comma-separate)")
	names = append(names, "backends")
	fs.StringVar(&o.Token, "token", o.Token, "Bearer token sent to the backends")
	names = append(names, "token")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Per-request timeout")
	names = append(names, "timeout")
	fs.BoolVar(&o.PartialResults, "partial-results", o.PartialResults, "Keep going when a backend fails")
	names = append(names, "partial-results")
	fs.IntVar(&o.BadgeLimit, "badge-limit", o.BadgeLimit, "Finding badges shown per cell")
	names = append(names, "badge-limit")
	fs.StringVar(&o.HighlightMarker, "highlight-marker", o.HighlightMarker, "Marker appended to highlighted lines in plain output")
	names = append(names, "highlight-marker")
	fs.IntVar(&o.PageSize, "page-size", o.PageSize, "Rows per page (0 shows all)")
	names = append(names, "page-size")
	fs.StringVar(&o.DefaultColumn, "default-column", o.DefaultColumn, "Column used for --filter without a column and the initial sort")
	names = append(names, "default-column")
	fs.BoolVar(&o.LenientRecords, "lenient-records", o.LenientRecords, "Skip malformed records and keep invalid ones instead of failing")
	names = append(names, "lenient-records")
	fs.StringVar(&o.Snapshot, "snapshot", o.Snapshot, "Read records from a snapshot file instead of the backends")
	names = append(names, "snapshot")
	fs.StringVar(&o.Style, "style", o.Style, "Syntax highlighting style for request/response text")
	names = append(names, "style")
	fs.StringVar(&o.ColorMode, "color", o.ColorMode, "Color output: auto, always or never")
	names = append(names, "color")
	return names
}

// Validate normalizes and checks the options.
func (o *Options) Validate() error {
	var cleaned []string
	for _, b := range o.Backends {
		if b = strings.TrimSpace(b); b != "" {
			cleaned = append(cleaned, b)
		}
	}
	o.Backends = cleaned
	if len(o.Backends) == 0 && o.Snapshot == "" {
		return errors.New("no backends configured: pass --backends or --snapshot (or set NANOAUDIT_BACKENDS)")
	}
	for _, b := range o.Backends {
		if !strings.HasPrefix(b, "http://") && !strings.HasPrefix(b, "https://") {
			return fmt.Errorf("invalid backend %q: expected an http(s) URL", b)
		}
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be positive", o.Timeout)
	}
	if o.BadgeLimit < 1 {
		return fmt.Errorf("invalid badge-limit %d: must be at least 1", o.BadgeLimit)
	}
	if o.PageSize < 0 {
		return fmt.Errorf("invalid page-size %d: must not be negative", o.PageSize)
	}
	if o.HighlightMarker == "" {
		o.HighlightMarker = DefaultHighlightMarker
	}
	switch strings.ToLower(o.ColorMode) {
	case "auto", "always", "never", "":
	default:
		return fmt.Errorf("invalid color mode %q (expected auto, always, or never)", o.ColorMode)
	}
	return nil
}
