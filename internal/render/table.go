package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/coffersTech/nanoaudit/internal/engine"
)

// WriteTable prints the current page of t: visible columns, sort arrow on
// the sorted header, a leading mark on selected rows and a page footer.
func WriteTable[R engine.Row](r *Renderer, w io.Writer, t *engine.Table[R]) error {
	cols := t.VisibleColumns()
	rows := t.PageRows()
	st := t.State()

	header := make([]string, len(cols))
	widths := make([]int, len(cols))
	for j, c := range cols {
		title := c.Title()
		if st.SortColumn == c.ID() {
			switch st.SortDirection {
			case engine.SortAsc:
				title += " ▲"
			case engine.SortDesc:
				title += " ▼"
			}
		}
		header[j] = truncate(title, r.opts.MaxCell)
		widths[j] = runewidth.StringWidth(header[j])
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(cols))
		for j, c := range cols {
			cells[i][j] = r.cell(c.Render(row))
			if n := lipgloss.Width(cells[i][j]); n > widths[j] {
				widths[j] = n
			}
		}
	}

	var b strings.Builder
	b.WriteString("  ")
	for j, h := range header {
		b.WriteString(r.styles.header.Render(h))
		b.WriteString(pad(h, widths[j], j == len(header)-1))
	}
	b.WriteString("\n")
	for i, row := range rows {
		if t.IsSelected(row.RowID()) {
			b.WriteString("* ")
		} else {
			b.WriteString("  ")
		}
		for j, cell := range cells[i] {
			b.WriteString(cell)
			b.WriteString(pad(cell, widths[j], j == len(cells[i])-1))
		}
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString(r.styles.muted.Render("  no matching rows"))
		b.WriteString("\n")
	}
	total := len(t.GetVisibleRows())
	b.WriteString(r.styles.muted.Render(fmt.Sprintf("page %d/%d, %d of %d rows", st.Page+1, t.PageCount(), total, t.Len())))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// cell renders a display value. Badge parts are styled only when the
// whole cell fits; otherwise the plain text is truncated.
func (r *Renderer) cell(dv engine.DisplayValue) string {
	if len(dv.Parts) > 0 && r.opts.Color && runewidth.StringWidth(dv.Text)+2*len(dv.Parts) <= r.opts.MaxCell {
		parts := make([]string, len(dv.Parts))
		for i, p := range dv.Parts {
			parts[i] = r.Badge(p.Text, p.Tone)
		}
		return strings.Join(parts, " ")
	}
	return truncate(strings.ReplaceAll(dv.Text, "\n", " "), r.opts.MaxCell)
}

// pad returns the spaces that bring s to width plus a gutter.
func pad(s string, width int, last bool) string {
	if last {
		return ""
	}
	n := width - lipgloss.Width(s)
	if n < 0 {
		n = 0
	}
	return strings.Repeat(" ", n+2)
}

func truncate(s string, width int) string {
	s = strings.TrimSpace(s)
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
