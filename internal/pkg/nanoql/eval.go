package nanoql

import (
	"strconv"
	"strings"
)

// Record exposes named fields to a query.
type Record interface {
	// Field returns the value of a named field and whether the record has it.
	Field(name string) (string, bool)
	// FullText returns the values searched by quoted and bare terms.
	FullText() []string
}

// Match reports whether rec satisfies node. A nil node matches everything.
func Match(node Node, rec Record) bool {
	switch n := node.(type) {
	case nil:
		return true
	case Binary:
		if n.Logic == Or {
			return Match(n.Left, rec) || Match(n.Right, rec)
		}
		return Match(n.Left, rec) && Match(n.Right, rec)
	case Not:
		return !Match(n.Expr, rec)
	case Term:
		return n.matches(rec)
	}
	return false
}

func (t Term) matches(rec Record) bool {
	if t.Op == OpContains {
		needle := strings.ToLower(t.Value)
		for _, v := range rec.FullText() {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	}

	v, ok := rec.Field(t.Field)
	if !ok {
		// a record without the field differs from any value
		return t.Op == OpNeq
	}
	switch t.Op {
	case OpEq:
		return wildcardEqual(v, t.Value)
	case OpNeq:
		return !wildcardEqual(v, t.Value)
	}
	c := order(v, t.Value)
	switch t.Op {
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	default:
		return c <= 0
	}
}

// wildcardEqual is case-insensitive equality where a leading and/or
// trailing '*' loosens the match to suffix, prefix or substring.
func wildcardEqual(value, pattern string) bool {
	head := strings.HasPrefix(pattern, "*")
	tail := strings.HasSuffix(pattern, "*")
	if !head && !tail {
		return strings.EqualFold(value, pattern)
	}
	v := strings.ToLower(value)
	p := strings.ToLower(strings.Trim(pattern, "*"))
	switch {
	case head && tail:
		return strings.Contains(v, p)
	case tail:
		return strings.HasPrefix(v, p)
	default:
		return strings.HasSuffix(v, p)
	}
}

// order compares numerically when both sides parse as numbers.
func order(a, b string) int {
	x, errX := strconv.ParseFloat(strings.TrimSpace(a), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errX != nil || errY != nil {
		return strings.Compare(a, b)
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
