// Package nanoql implements the record query language used by the review
// table: field terms such as httpMethod:POST or severity>=2, quoted
// full-text terms, NOT, AND, OR and parentheses. Adjacent terms are ANDed.
package nanoql

import (
	"strconv"
	"strings"
)

// Op is the comparison of a Term.
type Op uint8

const (
	OpEq Op = iota
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpContains // full-text, Field is empty
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return ":"
	case OpNeq:
		return "!="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	default:
		return "~"
	}
}

// Logic joins two expressions.
type Logic uint8

const (
	And Logic = iota
	Or
)

func (l Logic) String() string {
	if l == Or {
		return "OR"
	}
	return "AND"
}

// Node is a parsed query. String renders it back as canonical query text.
type Node interface {
	String() string
	node()
}

// Term compares one field, or searches every field when Field is empty.
type Term struct {
	Field string
	Op    Op
	Value string
}

// Binary is Left AND Right or Left OR Right.
type Binary struct {
	Logic Logic
	Left  Node
	Right Node
}

// Not negates Expr.
type Not struct {
	Expr Node
}

func (Term) node()   {}
func (Binary) node() {}
func (Not) node()    {}

func (t Term) String() string {
	if t.Op == OpContains {
		return strconv.Quote(t.Value)
	}
	return t.Field + t.Op.String() + quoteIfNeeded(t.Value)
}

func (b Binary) String() string {
	return "(" + b.Left.String() + " " + b.Logic.String() + " " + b.Right.String() + ")"
}

func (n Not) String() string { return "NOT " + n.Expr.String() }

func quoteIfNeeded(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\n:()\"<>") || strings.Contains(v, "!=") || isKeyword(v) {
		return strconv.Quote(v)
	}
	return v
}
