package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coffersTech/nanoaudit/internal/engine"
	"github.com/coffersTech/nanoaudit/internal/model"
)

const barWidth = 40

// bar scales n against peak to at most barWidth cells.
func (r *Renderer) bar(n, peak int64) string {
	if peak <= 0 || n <= 0 {
		return ""
	}
	cells := int(n * barWidth / peak)
	if cells == 0 {
		cells = 1
	}
	return r.styles.bar.Render(strings.Repeat("█", cells))
}

// MethodChart renders one bar per HTTP method in the fixed method order.
func (r *Renderer) MethodChart(stats model.MethodStatistics) string {
	entries := stats.Entries()
	var peak int64
	for _, e := range entries {
		if e.Requests > peak {
			peak = e.Requests
		}
	}
	var b strings.Builder
	b.WriteString(r.Section("Requests by method"))
	b.WriteString("\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-8s %6d %s\n", e.Method, e.Requests, r.bar(e.Requests, peak))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Directions renders ingress/egress segment counts.
func (r *Renderer) Directions(d model.DirectionStatistics) string {
	return r.Section("Transport segments") + "\n" +
		r.KV("ingress", fmt.Sprint(d.Ingress)) + "\n" +
		r.KV("egress", fmt.Sprint(d.Egress))
}

// Summary renders collection-wide counts.
func (r *Renderer) Summary(s engine.Summary) string {
	var b strings.Builder
	b.WriteString(r.Section("Summary"))
	b.WriteString("\n")
	b.WriteString(r.KV("records", fmt.Sprint(s.TotalRecords)) + "\n")
	b.WriteString(r.KV("findings", fmt.Sprint(s.TotalFindings)) + "\n")
	b.WriteString(r.KV("agents", fmt.Sprint(s.Agents)) + "\n")
	if s.TotalRecords > 0 {
		b.WriteString(r.KV("from", engine.FormatTimestamp(s.MinTime)) + "\n")
		b.WriteString(r.KV("to", engine.FormatTimestamp(s.MaxTime)) + "\n")
	}
	writeDist := func(title string, dist map[string]int) {
		if len(dist) == 0 {
			return
		}
		keys := make([]string, 0, len(dist))
		for k := range dist {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%d", k, dist[k])
		}
		b.WriteString(r.KV(title, strings.Join(parts, " ")) + "\n")
	}
	kinds := make(map[string]int, len(s.KindDist))
	for k, v := range s.KindDist {
		kinds[string(k)] = v
	}
	writeDist("kinds", kinds)
	writeDist("severities", s.SeverityDist)
	writeDist("verdicts", s.VerdictDist)

	if len(s.TopRules) > 0 {
		b.WriteString(r.Section("Top rules"))
		b.WriteString("\n")
		for _, rc := range s.TopRules {
			fmt.Fprintf(&b, "%6d  %s\n", rc.Count, rc.RuleID)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Histogram renders one bar per time bucket.
func (r *Renderer) Histogram(points []engine.HistogramPoint) string {
	var peak int64
	for _, p := range points {
		if int64(p.Count) > peak {
			peak = int64(p.Count)
		}
	}
	var b strings.Builder
	b.WriteString(r.Section("Records over time"))
	b.WriteString("\n")
	if len(points) == 0 {
		b.WriteString(r.styles.muted.Render("no records"))
		return b.String()
	}
	for _, p := range points {
		fmt.Fprintf(&b, "%s %6d %s\n", engine.FormatTimestamp(p.Time), p.Count, r.bar(int64(p.Count), peak))
	}
	return strings.TrimRight(b.String(), "\n")
}
