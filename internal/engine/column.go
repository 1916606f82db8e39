package engine

import (
	"strconv"
	"strings"

	"github.com/coffersTech/nanoaudit/internal/badge"
)

// ColumnKind decides how a column filters.
type ColumnKind int

const (
	KindString   ColumnKind = iota // substring filter
	KindNumber                     // exact numeric filter
	KindEnum                       // exact filter
	KindTime                       // substring of the rendered time
	KindFindings                   // substring of any badge label
)

// SortKey is the comparable value of a cell.
type SortKey struct {
	Str     string
	Num     float64
	Numeric bool
}

// StringKey builds a lexically ordered key.
func StringKey(s string) SortKey { return SortKey{Str: s} }

// NumberKey builds a numerically ordered key.
func NumberKey(n float64) SortKey {
	return SortKey{Str: strconv.FormatFloat(n, 'f', -1, 64), Num: n, Numeric: true}
}

// Compare returns -1, 0 or 1. Numeric keys sort before string keys.
func (k SortKey) Compare(o SortKey) int {
	switch {
	case k.Numeric && o.Numeric:
		switch {
		case k.Num < o.Num:
			return -1
		case k.Num > o.Num:
			return 1
		}
		return 0
	case k.Numeric:
		return -1
	case o.Numeric:
		return 1
	}
	return strings.Compare(k.Str, o.Str)
}

// Part is one styled fragment of a cell, such as a finding badge.
type Part struct {
	Text string
	Tone badge.ColorToken
}

// DisplayValue is what a renderer draws for a cell.
type DisplayValue struct {
	Text  string
	Parts []Part
}

// Plain wraps text with no styling.
func Plain(text string) DisplayValue { return DisplayValue{Text: text} }

// Column describes one table column over rows of type R.
type Column[R Row] interface {
	ID() string
	Title() string
	Kind() ColumnKind
	Key(row R) SortKey
	Render(row R) DisplayValue
	Sortable() bool
	Hideable() bool
}

// FuncColumn implements Column with plain functions.
// KeyFunc defaults to the rendered text; RenderFunc defaults to the key.
type FuncColumn[R Row] struct {
	ColID      string
	ColTitle   string
	ColKind    ColumnKind
	KeyFunc    func(R) SortKey
	RenderFunc func(R) DisplayValue
	NoSort     bool
	NoHide     bool
}

func (c FuncColumn[R]) ID() string { return c.ColID }

func (c FuncColumn[R]) Title() string {
	if c.ColTitle == "" {
		return c.ColID
	}
	return c.ColTitle
}

func (c FuncColumn[R]) Kind() ColumnKind { return c.ColKind }
func (c FuncColumn[R]) Sortable() bool   { return !c.NoSort }
func (c FuncColumn[R]) Hideable() bool   { return !c.NoHide }

func (c FuncColumn[R]) Key(row R) SortKey {
	if c.KeyFunc != nil {
		return c.KeyFunc(row)
	}
	if c.RenderFunc != nil {
		return StringKey(c.RenderFunc(row).Text)
	}
	return SortKey{}
}

func (c FuncColumn[R]) Render(row R) DisplayValue {
	if c.RenderFunc != nil {
		return c.RenderFunc(row)
	}
	if c.KeyFunc != nil {
		return Plain(c.KeyFunc(row).Str)
	}
	return DisplayValue{}
}

// matchCell applies the column filter rule for the column's kind.
func matchCell[R Row](col Column[R], row R, value string) bool {
	switch col.Kind() {
	case KindNumber:
		key := col.Key(row)
		if n, err := strconv.ParseFloat(value, 64); err == nil && key.Numeric {
			return key.Num == n
		}
		return key.Str == value
	case KindEnum:
		return col.Key(row).Str == value
	case KindFindings:
		dv := col.Render(row)
		for _, p := range dv.Parts {
			if strings.Contains(p.Text, value) {
				return true
			}
		}
		return strings.Contains(dv.Text, value)
	case KindTime:
		return strings.Contains(col.Render(row).Text, value)
	default:
		return strings.Contains(col.Key(row).Str, value)
	}
}
