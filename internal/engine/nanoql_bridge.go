package engine

import (
	"strconv"
	"strings"

	"github.com/coffersTech/nanoaudit/internal/model"
	"github.com/coffersTech/nanoaudit/internal/pkg/nanoql"
)

// MatchNanoQL reports whether rec satisfies node; nil matches everything.
func MatchNanoQL(node nanoql.Node, rec nanoql.Record) bool {
	return nanoql.Match(node, rec)
}

// ParseNanoQL parses a query; a blank query yields nil.
func ParseNanoQL(query string) (nanoql.Node, error) {
	return nanoql.Parse(query)
}

// columnFields exposes every column of a row as a NanoQL field.
type columnFields[R Row] struct {
	t   *Table[R]
	row R
}

func (c columnFields[R]) Field(name string) (string, bool) {
	for _, col := range c.t.cols {
		if strings.EqualFold(col.ID(), name) {
			return col.Render(c.row).Text, true
		}
	}
	return "", false
}

func (c columnFields[R]) FullText() []string {
	out := make([]string, 0, len(c.t.cols))
	for _, col := range c.t.cols {
		out = append(out, col.Render(c.row).Text)
	}
	return out
}

func (t *Table[R]) recordFields(r R) nanoql.Record {
	if t.fields != nil {
		return t.fields(r)
	}
	return columnFields[R]{t: t, row: r}
}

// RecordFields exposes a LogRecord to NanoQL, including raw request and
// response text and the findings attached to them.
type RecordFields struct {
	Record model.LogRecord
}

// QueryFields adapts a LogRecord for Table.SetQueryFields.
func QueryFields(r model.LogRecord) nanoql.Record { return RecordFields{Record: r} }

func (f RecordFields) Field(name string) (string, bool) {
	r := f.Record
	switch strings.ToLower(name) {
	case "id":
		return r.ID, true
	case "agentid", "agent":
		return r.AgentID, true
	case "remoteip", "ip":
		return r.RemoteIP, true
	case "timestamp", "ts":
		return strconv.FormatInt(r.Timestamp, 10), true
	case "type", "kind":
		return string(r.Kind()), true
	case "verdict":
		return r.Verdict, true
	case "request":
		return r.Request, true
	case "response":
		return r.Response, true
	case "streamid", "stream":
		return r.StreamID, true
	case "findings":
		return strconv.Itoa(len(r.RequestFindings) + len(r.ResponseFindings)), true
	case "rule", "ruleid":
		return joinFindings(r.Findings(), func(f model.Finding) string { return f.RuleID }), true
	case "classification":
		return joinFindings(r.Findings(), func(f model.Finding) string { return f.Classification }), true
	case "severity":
		return strconv.Itoa(maxSeverity(r.Findings())), true
	}

	if h, ok := r.HTTP(); ok {
		switch strings.ToLower(name) {
		case "httpmethod", "method":
			return h.Method, true
		case "httprequesturl", "url":
			return h.RequestURL, true
		case "httprequestversion":
			return h.RequestVersion, true
		case "httpresponseversion":
			return h.ResponseVersion, true
		case "httpresponsecode", "status":
			return h.ResponseCode, true
		}
	}
	if tr, ok := r.Transport(); ok && strings.EqualFold(name, "direction") {
		return string(tr.Direction), true
	}
	return "", false
}

func (f RecordFields) FullText() []string {
	r := f.Record
	out := []string{r.ID, r.AgentID, r.RemoteIP, r.Verdict, r.Request, r.Response}
	for _, fd := range r.Findings() {
		out = append(out, fd.RuleID, fd.Classification, fd.MatchedString)
	}
	return out
}

// joinFindings renders the distinct values of get so that equality
// matches a single finding and '*' wildcards match any.
func joinFindings(findings []model.Finding, get func(model.Finding) string) string {
	seen := make(map[string]struct{}, len(findings))
	var parts []string
	for _, f := range findings {
		v := get(f)
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		parts = append(parts, v)
	}
	return strings.Join(parts, ",")
}

func maxSeverity(findings []model.Finding) int {
	max := -1
	for _, f := range findings {
		if f.Severity > max {
			max = f.Severity
		}
	}
	return max
}
