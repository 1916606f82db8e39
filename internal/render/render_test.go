package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffersTech/nanoaudit/internal/engine"
	"github.com/coffersTech/nanoaudit/internal/model"
	"github.com/coffersTech/nanoaudit/internal/overlay"
)

const request = "GET /search?q=1%27+OR+1=1 HTTP/1.1\r\nHost: shop\r\nUser-Agent: curl\r\n\r\n"

func finding(rule, class string, line, severity int) model.Finding {
	return model.Finding{
		RuleID:         rule,
		RuleName:       rule + " rule",
		Classification: class,
		Severity:       severity,
		Position:       model.Position{Line: line, ColumnIndex: 4, Length: 3},
	}
}

func plain(t *testing.T) (*Renderer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(&buf, Options{}), &buf
}

func TestCodeBlock_Plain(t *testing.T) {
	r, _ := plain(t)
	findings := []model.Finding{finding("sqli", "sqli", 0, model.SeverityCritical), finding("x", "x", 42, model.SeverityInfo)}

	out := r.CodeBlock(request, findings)
	set := overlay.ComputeHighlightLines(request, findings)
	assert.Equal(t, []int{0}, set.Sorted())
	assert.Equal(t, overlay.Annotate(request, set), out)
	assert.Equal(t, request, overlay.Strip(out, set))

	assert.Contains(t, r.CodeBlock("", nil), "(empty)")
}

func TestCodeBlock_Color(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Options{Color: true, Style: "no-such-style"})

	out := r.CodeBlock(request, []model.Finding{finding("ua", "ua", 2, model.SeverityMedium)})
	assert.Contains(t, out, "\x1b[")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, strings.Count(request, "\n")+1)
	assert.Contains(t, lines[2], "User-Agent: curl")
	assert.NotContains(t, out, overlay.DefaultMarker)
}

func TestBadges(t *testing.T) {
	r, _ := plain(t)
	findings := []model.Finding{
		finding("a", "sqli", 0, model.SeverityCritical),
		finding("b", "xss", 0, model.SeverityHigh),
		finding("c", "", 0, model.SeverityMedium),
		finding("d", "lfi", 0, model.SeverityInfo),
		finding("e", "rce", 0, model.SeverityInfo),
	}
	assert.Equal(t, "[SQLI] [XSS] [C] +2", r.Badges(findings))
	assert.Equal(t, "", r.Badges(nil))
}

func TestRecord(t *testing.T) {
	r, _ := plain(t)
	rec := model.NewHTTPRecord(model.LogRecord{
		ID:              "rec-1",
		AgentID:         "agent-1",
		Timestamp:       1700000000,
		Request:         request,
		RequestFindings: []model.Finding{finding("sqli", "sqli", 0, model.SeverityCritical)},
	}, model.HTTPFields{Method: "GET", RequestURL: "/search", RequestVersion: "HTTP/1.1"})

	out := r.Record(rec)
	assert.Contains(t, out, "HTTP rec-1")
	assert.Contains(t, out, "2023-11-14 22:13:20 UTC")
	assert.Contains(t, out, "[SQLI]")
	assert.Contains(t, out, overlay.DefaultMarker)
	assert.Contains(t, out, "[critical] sqli rule line 1 col 4")
	assert.NotContains(t, out, "Response")
}

func TestStream(t *testing.T) {
	r, _ := plain(t)
	in, err := model.NewTransportRecord(model.LogRecord{ID: "1", StreamIndex: 0, Request: "hello"},
		model.TransportFields{Transport: model.KindTCP, Direction: model.DirectionIngress})
	require.NoError(t, err)
	outRec, err := model.NewTransportRecord(model.LogRecord{ID: "2", StreamIndex: 1, Response: "world"},
		model.TransportFields{Transport: model.KindTCP, Direction: model.DirectionEgress})
	require.NoError(t, err)

	out := r.Stream([]model.LogRecord{in, outRec})
	assert.Less(t, strings.Index(out, "#0 ingress"), strings.Index(out, "#1 egress"))
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
	assert.Contains(t, r.Stream(nil), "no records")
}

type item struct {
	id   string
	name string
	n    int
}

func (i item) RowID() string { return i.id }

func TestWriteTable(t *testing.T) {
	cols := []engine.Column[item]{
		engine.FuncColumn[item]{ColID: "name", ColTitle: "Name",
			KeyFunc: func(i item) engine.SortKey { return engine.StringKey(i.name) }},
		engine.FuncColumn[item]{ColID: "n", ColTitle: "N", ColKind: engine.KindNumber,
			KeyFunc: func(i item) engine.SortKey { return engine.NumberKey(float64(i.n)) }},
	}
	rows := []item{{"1", "bravo", 2}, {"2", "alpha", 1}, {"3", strings.Repeat("x", 80), 3}}
	tbl, err := engine.NewTable(rows, cols, engine.WithPageSize(2))
	require.NoError(t, err)
	require.NoError(t, tbl.SetSortDirection("name", engine.SortAsc))
	require.NoError(t, tbl.ToggleSelect("2"))

	var buf bytes.Buffer
	r := New(&buf, Options{MaxCell: 10})
	require.NoError(t, WriteTable(r, &buf, tbl))
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Name ▲")
	assert.True(t, strings.HasPrefix(lines[1], "* alpha"))
	assert.True(t, strings.HasPrefix(lines[2], "  bravo"))
	assert.Equal(t, "page 1/2, 3 of 3 rows", lines[3])

	buf.Reset()
	tbl.SetPage(1)
	require.NoError(t, WriteTable(r, &buf, tbl))
	assert.Contains(t, buf.String(), "xxxxxxxxx…")
}

func TestCharts(t *testing.T) {
	r, _ := plain(t)
	var stats model.MethodStatistics
	stats.Add(model.MethodGET, 10)
	stats.Add(model.MethodPOST, 5)

	chart := r.MethodChart(stats)
	lines := strings.Split(chart, "\n")
	require.Len(t, lines, len(model.Methods)+1)
	assert.Contains(t, chart, strings.Repeat("█", barWidth))
	assert.Contains(t, chart, strings.Repeat("█", barWidth/2)+"\n")

	hist := r.Histogram([]engine.HistogramPoint{{Time: 0, Count: 1}, {Time: 60, Count: 0}})
	assert.Contains(t, hist, "1970-01-01 00:00:00 UTC")
	assert.Contains(t, r.Histogram(nil), "no records")

	sum := r.Summary(engine.Summary{TotalRecords: 2, SeverityDist: map[string]int{"high": 1, "critical": 2}})
	assert.Contains(t, sum, "critical=2 high=1")
}
