package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/coffersTech/nanoaudit/internal/badge"
	"github.com/coffersTech/nanoaudit/internal/engine"
	"github.com/coffersTech/nanoaudit/internal/model"
)

// CodeBlock renders raw request or response text with the lines referenced
// by findings highlighted. Without colour the lines carry the marker suffix.
func (r *Renderer) CodeBlock(text string, findings []model.Finding) string {
	if text == "" {
		return r.styles.muted.Render("(empty)")
	}
	set := r.mapper.ComputeHighlightLines(text, findings)
	if !r.opts.Color {
		return r.mapper.Annotate(text, set)
	}

	lines := strings.Split(text, "\n")
	coloured := r.syntaxLines(text, lines)
	hl := color.New(color.BgYellow, color.FgBlack)
	hl.EnableColor()

	var b strings.Builder
	for i, line := range lines {
		b.WriteString(r.styles.muted.Render(fmt.Sprintf("%4d ", i+1)))
		if set.Has(i) {
			b.WriteString(hl.Sprint(strings.TrimRight(line, "\r")))
		} else {
			b.WriteString(coloured[i])
		}
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// syntaxLines colours text with the chroma HTTP lexer, one entry per line.
// Lines chroma cannot account for stay plain.
func (r *Renderer) syntaxLines(text string, lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimRight(l, "\r")
	}

	lexer := lexers.Get("http")
	if lexer == nil {
		return out
	}
	lexer = chroma.Coalesce(lexer)
	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		r.opts.Logger.Debug("syntax highlighting failed", zap.Error(err))
		return out
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	style := styles.Get(r.opts.Style)
	if style == nil {
		style = styles.Fallback
	}

	for i, tokens := range chroma.SplitTokensIntoLines(iterator.Tokens()) {
		if i >= len(out) {
			break
		}
		trimmed := make([]chroma.Token, 0, len(tokens))
		for _, tok := range tokens {
			tok.Value = strings.TrimRight(tok.Value, "\r\n")
			if tok.Value != "" {
				trimmed = append(trimmed, tok)
			}
		}
		var buf bytes.Buffer
		if err := formatter.Format(&buf, style, chroma.Literator(trimmed...)); err != nil {
			continue
		}
		out[i] = buf.String()
	}
	return out
}

// Record renders the detail view of one record: metadata, then the request
// and response with their badges, highlighted lines and finding list.
func (r *Renderer) Record(rec model.LogRecord) string {
	var b strings.Builder
	b.WriteString(r.Title(fmt.Sprintf("%s %s", strings.ToUpper(string(rec.Kind())), rec.ID)))
	b.WriteString("\n")

	kv := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(r.KV(label, value))
		b.WriteString("\n")
	}
	kv("Time", engine.FormatTimestamp(rec.Timestamp))
	kv("Agent", rec.AgentID)
	kv("Remote IP", rec.RemoteIP)
	kv("Verdict", rec.Verdict)
	if rec.StreamID != "" {
		kv("Stream", fmt.Sprintf("%s #%d", rec.StreamID, rec.StreamIndex))
	}
	if h, ok := rec.HTTP(); ok {
		kv("Request", strings.TrimSpace(h.Method+" "+h.RequestURL+" "+h.RequestVersion))
		kv("Status", h.ResponseCode)
	}
	if t, ok := rec.Transport(); ok {
		kv("Direction", string(t.Direction))
	}

	r.block(&b, "Request", rec.Request, rec.RequestFindings)
	r.block(&b, "Response", rec.Response, rec.ResponseFindings)
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) block(b *strings.Builder, name, text string, findings []model.Finding) {
	if text == "" && len(findings) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(r.Section(name))
	if len(findings) > 0 {
		b.WriteString(" ")
		b.WriteString(r.Badges(findings))
	}
	b.WriteString("\n")
	b.WriteString(r.CodeBlock(text, findings))
	b.WriteString("\n")
	for _, f := range findings {
		b.WriteString(r.finding(f))
		b.WriteString("\n")
	}
}

func (r *Renderer) finding(f model.Finding) string {
	name := f.RuleName
	if name == "" {
		name = f.RuleID
	}
	line := fmt.Sprintf("  %s %s line %d col %d", r.Badge(model.SeverityName(f.Severity), badge.ColorFor(f.Severity)), name, f.Position.Line+1, f.Position.ColumnIndex)
	if f.MatchedString != "" {
		line += r.styles.muted.Render(fmt.Sprintf(" %q", f.MatchedString))
	}
	return line
}

// Stream renders stream segments in order. Ingress segments show the
// request side, egress segments the response side.
func (r *Renderer) Stream(records []model.LogRecord) string {
	if len(records) == 0 {
		return r.styles.muted.Render("no records in stream")
	}
	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			b.WriteString("\n\n")
		}
		dir := "ingress"
		text, findings := rec.Request, rec.RequestFindings
		if t, ok := rec.Transport(); ok && t.Direction == model.DirectionEgress {
			dir = "egress"
			text, findings = rec.Response, rec.ResponseFindings
		} else if !ok && rec.Request == "" {
			dir = "egress"
			text, findings = rec.Response, rec.ResponseFindings
		}
		b.WriteString(r.Section(fmt.Sprintf("#%d %s %s", rec.StreamIndex, dir, engine.FormatTimestamp(rec.Timestamp))))
		if len(findings) > 0 {
			b.WriteString(" ")
			b.WriteString(r.Badges(findings))
		}
		b.WriteString("\n")
		b.WriteString(r.CodeBlock(text, findings))
	}
	return b.String()
}
