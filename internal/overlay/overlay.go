// Package overlay maps findings onto line-oriented text.
package overlay

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/coffersTech/nanoaudit/internal/model"
)

// DefaultMarker is appended to highlighted lines by Annotate.
const DefaultMarker = " // [!code highlight]"

// HighlightSet holds 0-based line indices to highlight.
type HighlightSet map[int]struct{}

// Has reports whether line is in the set.
func (s HighlightSet) Has(line int) bool {
	_, ok := s[line]
	return ok
}

// Sorted returns the indices in ascending order.
func (s HighlightSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for line := range s {
		out = append(out, line)
	}
	sort.Ints(out)
	return out
}

// Mapper computes and applies highlight sets.
// The zero value uses DefaultMarker and discards logs.
type Mapper struct {
	Marker string
	Logger *zap.Logger
}

var defaultMapper Mapper

// ComputeHighlightLines uses the default Mapper.
func ComputeHighlightLines(text string, findings []model.Finding) HighlightSet {
	return defaultMapper.ComputeHighlightLines(text, findings)
}

// Annotate uses the default Mapper.
func Annotate(text string, lines HighlightSet) string {
	return defaultMapper.Annotate(text, lines)
}

// Strip uses the default Mapper.
func Strip(annotated string, lines HighlightSet) string {
	return defaultMapper.Strip(annotated, lines)
}

func (m Mapper) marker() string {
	if m.Marker == "" {
		return DefaultMarker
	}
	return m.Marker
}

func (m Mapper) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

// ComputeHighlightLines returns the lines of text referenced by findings.
// Text splits on "\n" only. References past the last line are skipped.
func (m Mapper) ComputeHighlightLines(text string, findings []model.Finding) HighlightSet {
	set := HighlightSet{}
	if text == "" {
		return set
	}
	count := strings.Count(text, "\n") + 1
	for _, f := range findings {
		line := f.Position.Line
		if line < 0 || line >= count {
			m.logger().Debug("out of range finding reference",
				zap.String("rule", f.RuleID),
				zap.Int("line", line),
				zap.Int("lines", count))
			continue
		}
		set[line] = struct{}{}
	}
	return set
}

// Annotate appends the marker to every line in lines. All lines are kept,
// so a trailing newline in text stays a trailing newline.
func (m Mapper) Annotate(text string, lines HighlightSet) string {
	if text == "" {
		return ""
	}
	if len(lines) == 0 {
		return text
	}
	marker := m.marker()
	parts := strings.Split(text, "\n")
	for i := range parts {
		if lines.Has(i) {
			parts[i] += marker
		}
	}
	return strings.Join(parts, "\n")
}

// Strip undoes Annotate for the same set.
func (m Mapper) Strip(annotated string, lines HighlightSet) string {
	if annotated == "" || len(lines) == 0 {
		return annotated
	}
	marker := m.marker()
	parts := strings.Split(annotated, "\n")
	for i := range parts {
		if lines.Has(i) {
			parts[i] = strings.TrimSuffix(parts[i], marker)
		}
	}
	return strings.Join(parts, "\n")
}
