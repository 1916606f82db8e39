// Package badge picks the findings shown as compact badges and their colours.
package badge

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/coffersTech/nanoaudit/internal/model"
)

// DefaultLimit is the number of badges shown per table cell.
const DefaultLimit = 3

// ColorToken is a semantic colour; renderers map it to a real palette.
type ColorToken string

const (
	Neutral  ColorToken = "neutral"
	Warning  ColorToken = "warning"
	Elevated ColorToken = "elevated"
	Critical ColorToken = "critical"
)

// BadgesFor returns at most limit findings in their original order.
// The result is never nil.
func BadgesFor(findings []model.Finding, limit int) []model.Finding {
	if limit <= 0 || len(findings) == 0 {
		return []model.Finding{}
	}
	if limit > len(findings) {
		limit = len(findings)
	}
	out := make([]model.Finding, limit)
	copy(out, findings[:limit])
	return out
}

// Overflow is the number of findings BadgesFor hides.
func Overflow(findings []model.Finding, limit int) int {
	if limit < 0 {
		limit = 0
	}
	if n := len(findings) - limit; n > 0 {
		return n
	}
	return 0
}

// ColorFor maps a severity to a colour token. Unknown values are neutral.
func ColorFor(severity int) ColorToken {
	switch severity {
	case model.SeverityMedium:
		return Warning
	case model.SeverityHigh:
		return Elevated
	case model.SeverityCritical:
		return Critical
	default:
		return Neutral
	}
}

// Label is the badge text: the classification, upper-cased.
// Findings without a classification fall back to the rule id.
func Label(f model.Finding) string {
	text := f.Classification
	if text == "" {
		text = f.RuleID
	}
	return cases.Upper(language.Und).String(text)
}
