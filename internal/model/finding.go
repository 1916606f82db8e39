package model

import "fmt"

// Severity levels attached to findings by the agent rules.
const (
	SeverityInfo     = 0
	SeverityMedium   = 1
	SeverityHigh     = 2
	SeverityCritical = 3
)

// SeverityName returns the display name of a severity level.
func SeverityName(severity int) string {
	switch severity {
	case SeverityInfo:
		return "info"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Position anchors a finding inside request or response text.
type Position struct {
	Line        int // 0-based line index
	ColumnIndex int // offset from the start of the line
	Length      int // length of the matched string
}

// Finding is a single rule match reported by a capture agent.
type Finding struct {
	RuleID             string
	RuleName           string
	RuleDescription    string
	Position           Position
	MatchedString      string
	MatchedBodyHash    string
	MatchedBodyHashAlg string
	Classification     string
	Severity           int
}

// Validate checks the position invariants of a finding.
func (f Finding) Validate() error {
	if f.Position.Line < 0 {
		return newValidationError("line", fmt.Sprintf("rule %s: negative line %d", f.RuleID, f.Position.Line), ErrInvalidPosition)
	}
	if f.Position.Length < 0 {
		return newValidationError("length", fmt.Sprintf("rule %s: negative length %d", f.RuleID, f.Position.Length), ErrInvalidPosition)
	}
	if f.MatchedString != "" && f.Position.Length > 0 && len(f.MatchedString) != f.Position.Length {
		return newValidationError("matchedString",
			fmt.Sprintf("rule %s: matched string has length %d, position says %d", f.RuleID, len(f.MatchedString), f.Position.Length),
			ErrInvalidPosition)
	}
	return nil
}
