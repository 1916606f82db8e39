package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/coffersTech/nanoaudit/internal/badge"
	"github.com/coffersTech/nanoaudit/internal/model"
)

// Severity palette.
var (
	Critical = lipgloss.Color("#FF0000") // Bright red
	High     = lipgloss.Color("#FF6B6B") // Red/Orange
	Medium   = lipgloss.Color("#FFD93D") // Yellow
	Info     = lipgloss.Color("#4D96FF") // Blue

	Primary = lipgloss.Color("#7D56F4")
	Muted   = lipgloss.Color("#6B7280")
	Text    = lipgloss.Color("#FAFAFA")
	Dark    = lipgloss.Color("#1A1A2E")
)

// ToneColor maps a badge colour token to the palette.
func ToneColor(t badge.ColorToken) lipgloss.Color {
	switch t {
	case badge.Critical:
		return Critical
	case badge.Elevated:
		return High
	case badge.Warning:
		return Medium
	default:
		return Info
	}
}

type styleSet struct {
	title   lipgloss.Style
	section lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	bar     lipgloss.Style
	badges  map[badge.ColorToken]lipgloss.Style
}

func newStyleSet(r *lipgloss.Renderer) styleSet {
	s := styleSet{
		title: r.NewStyle().
			Bold(true).
			Foreground(Text).
			Background(Primary).
			Padding(0, 1),
		section: r.NewStyle().
			Foreground(Text).
			Bold(true),
		header: r.NewStyle().
			Bold(true).
			Underline(true),
		label: r.NewStyle().
			Foreground(Muted).
			Width(16),
		value: r.NewStyle().
			Foreground(Text).
			Bold(true),
		muted: r.NewStyle().
			Foreground(Muted),
		bar: r.NewStyle().
			Foreground(Primary),
		badges: make(map[badge.ColorToken]lipgloss.Style),
	}
	for _, t := range []badge.ColorToken{badge.Neutral, badge.Warning, badge.Elevated, badge.Critical} {
		fg := Text
		if t == badge.Warning {
			fg = Dark
		}
		s.badges[t] = r.NewStyle().
			Bold(true).
			Foreground(fg).
			Background(ToneColor(t))
	}
	return s
}

// Badge renders one finding label. Without colour it is bracketed.
func (r *Renderer) Badge(text string, tone badge.ColorToken) string {
	if !r.opts.Color {
		return "[" + text + "]"
	}
	st, ok := r.styles.badges[tone]
	if !ok {
		st = r.styles.badges[badge.Neutral]
	}
	return st.Render(" " + text + " ")
}

// Badges renders the capped badge row for findings, with "+N" for the rest.
func (r *Renderer) Badges(findings []model.Finding) string {
	shown := badge.BadgesFor(findings, r.opts.BadgeLimit)
	parts := make([]string, 0, len(shown)+1)
	for _, f := range shown {
		parts = append(parts, r.Badge(badge.Label(f), badge.ColorFor(f.Severity)))
	}
	if n := badge.Overflow(findings, r.opts.BadgeLimit); n > 0 {
		parts = append(parts, r.styles.muted.Render("+"+strconv.Itoa(n)))
	}
	return strings.Join(parts, " ")
}

// Title renders a heading bar.
func (r *Renderer) Title(s string) string { return r.styles.title.Render(s) }

// Section renders a sub-heading.
func (r *Renderer) Section(s string) string { return r.styles.section.Render(s) }

// KV renders an aligned label/value pair.
func (r *Renderer) KV(label, value string) string {
	return r.styles.label.Render(label) + r.styles.value.Render(value)
}
