package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coffersTech/nanoaudit/internal/badge"
	"github.com/coffersTech/nanoaudit/internal/model"
)

// TimeLayout renders record timestamps.
const TimeLayout = "2006-01-02 15:04:05 UTC"

// Column ids of the LogRecord schema.
const (
	ColRemoteIP         = "remoteIp"
	ColHTTPMethod       = "httpMethod"
	ColHTTPRequestURL   = "httpRequestURL"
	ColHTTPResponseCode = "httpResponseCode"
	ColTimestamp        = "timestamp"
	ColRequestFindings  = "requestFindings"
	ColResponseFindings = "responseFindings"
	ColVerdict          = "verdict"
	ColType             = "type"
	ColDirection        = "direction"
	ColAgentID          = "agentId"
)

// FormatTimestamp renders unix seconds in TimeLayout.
func FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(TimeLayout)
}

// LogColumns is the LogRecord schema with the default badge limit.
func LogColumns() []Column[model.LogRecord] {
	return LogColumnsWithLimit(badge.DefaultLimit)
}

// LogColumnsWithLimit is LogColumns with a custom badge cap per cell.
func LogColumnsWithLimit(limit int) []Column[model.LogRecord] {
	httpField := func(get func(model.HTTPFields) string) func(model.LogRecord) SortKey {
		return func(r model.LogRecord) SortKey {
			if h, ok := r.HTTP(); ok {
				return StringKey(get(h))
			}
			return StringKey("")
		}
	}

	return []Column[model.LogRecord]{
		FuncColumn[model.LogRecord]{
			ColID: ColRemoteIP, ColTitle: "Remote IP", ColKind: KindString,
			KeyFunc: func(r model.LogRecord) SortKey { return StringKey(r.RemoteIP) },
		},
		FuncColumn[model.LogRecord]{
			ColID: ColHTTPMethod, ColTitle: "Method", ColKind: KindEnum,
			KeyFunc: httpField(func(h model.HTTPFields) string { return h.Method }),
		},
		FuncColumn[model.LogRecord]{
			ColID: ColHTTPRequestURL, ColTitle: "URL", ColKind: KindString,
			KeyFunc: httpField(func(h model.HTTPFields) string { return h.RequestURL }),
		},
		FuncColumn[model.LogRecord]{
			ColID: ColHTTPResponseCode, ColTitle: "Status", ColKind: KindNumber,
			KeyFunc: func(r model.LogRecord) SortKey {
				h, ok := r.HTTP()
				if !ok {
					return StringKey("")
				}
				code, _, _ := strings.Cut(h.ResponseCode, " ")
				if n, err := strconv.Atoi(code); err == nil {
					return NumberKey(float64(n))
				}
				return StringKey(h.ResponseCode)
			},
		},
		FuncColumn[model.LogRecord]{
			ColID: ColTimestamp, ColTitle: "Time", ColKind: KindTime, NoHide: true,
			KeyFunc:    func(r model.LogRecord) SortKey { return NumberKey(float64(r.Timestamp)) },
			RenderFunc: func(r model.LogRecord) DisplayValue { return Plain(FormatTimestamp(r.Timestamp)) },
		},
		findingsColumn(ColRequestFindings, "Request Findings", limit,
			func(r model.LogRecord) []model.Finding { return r.RequestFindings }),
		findingsColumn(ColResponseFindings, "Response Findings", limit,
			func(r model.LogRecord) []model.Finding { return r.ResponseFindings }),
		FuncColumn[model.LogRecord]{
			ColID: ColVerdict, ColTitle: "Verdict", ColKind: KindEnum,
			KeyFunc: func(r model.LogRecord) SortKey { return StringKey(r.Verdict) },
		},
		FuncColumn[model.LogRecord]{
			ColID: ColType, ColTitle: "Type", ColKind: KindEnum,
			KeyFunc: func(r model.LogRecord) SortKey { return StringKey(string(r.Kind())) },
		},
		FuncColumn[model.LogRecord]{
			ColID: ColDirection, ColTitle: "Direction", ColKind: KindEnum,
			KeyFunc: func(r model.LogRecord) SortKey {
				if t, ok := r.Transport(); ok {
					return StringKey(string(t.Direction))
				}
				return StringKey("")
			},
		},
		FuncColumn[model.LogRecord]{
			ColID: ColAgentID, ColTitle: "Agent", ColKind: KindString,
			KeyFunc: func(r model.LogRecord) SortKey { return StringKey(r.AgentID) },
		},
	}
}

// findingsColumn sorts by finding count and renders capped badges.
func findingsColumn(id, title string, limit int, get func(model.LogRecord) []model.Finding) Column[model.LogRecord] {
	return FuncColumn[model.LogRecord]{
		ColID: id, ColTitle: title, ColKind: KindFindings,
		KeyFunc: func(r model.LogRecord) SortKey { return NumberKey(float64(len(get(r)))) },
		RenderFunc: func(r model.LogRecord) DisplayValue {
			findings := get(r)
			shown := badge.BadgesFor(findings, limit)
			dv := DisplayValue{Parts: make([]Part, 0, len(shown)+1)}
			labels := make([]string, 0, len(shown)+1)
			for _, f := range shown {
				label := badge.Label(f)
				dv.Parts = append(dv.Parts, Part{Text: label, Tone: badge.ColorFor(f.Severity)})
				labels = append(labels, label)
			}
			if n := badge.Overflow(findings, limit); n > 0 {
				more := fmt.Sprintf("+%d", n)
				dv.Parts = append(dv.Parts, Part{Text: more, Tone: badge.Neutral})
				labels = append(labels, more)
			}
			dv.Text = strings.Join(labels, " ")
			return dv
		},
	}
}
