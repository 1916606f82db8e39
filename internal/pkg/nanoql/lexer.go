package nanoql

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tkEOF tokenKind = iota
	tkWord
	tkQuoted
	tkCmp // Op holds the comparison
	tkLParen
	tkRParen
	tkAnd
	tkOr
	tkNot
)

type token struct {
	kind tokenKind
	text string
	op   Op
	pos  int // byte offset in the query
}

func (t token) String() string {
	if t.kind == tkEOF {
		return "end of query"
	}
	return fmt.Sprintf("%q", t.text)
}

// SyntaxError reports where a query stopped making sense.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("at offset %d: %s", e.Pos, e.Msg)
}

func isKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "AND", "OR", "NOT":
		return true
	}
	return false
}

// scan splits a query into tokens, ending with tkEOF.
func scan(q string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(q) {
		r, size := utf8.DecodeRuneInString(q[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			toks = append(toks, token{kind: tkLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tkRParen, text: ")", pos: i})
			i++
		case r == ':':
			toks = append(toks, token{kind: tkCmp, text: ":", op: OpEq, pos: i})
			i++
		case r == '!' && strings.HasPrefix(q[i:], "!="):
			toks = append(toks, token{kind: tkCmp, text: "!=", op: OpNeq, pos: i})
			i += 2
		case r == '>' || r == '<':
			t := token{kind: tkCmp, text: string(r), pos: i, op: OpGt}
			if r == '<' {
				t.op = OpLt
			}
			i++
			if i < len(q) && q[i] == '=' {
				t.text += "="
				t.op++ // OpGt→OpGte, OpLt→OpLte
				i++
			}
			toks = append(toks, t)
		case r == '"':
			t, next, err := scanQuoted(q, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)
			i = next
		default:
			start := i
			for i < len(q) {
				r, size := utf8.DecodeRuneInString(q[i:])
				if isDelimiter(q[i:], r) {
					break
				}
				i += size
			}
			word := q[start:i]
			t := token{kind: tkWord, text: word, pos: start}
			switch strings.ToUpper(word) {
			case "AND":
				t.kind = tkAnd
			case "OR":
				t.kind = tkOr
			case "NOT":
				t.kind = tkNot
			}
			toks = append(toks, t)
		}
	}
	return append(toks, token{kind: tkEOF, pos: len(q)}), nil
}

func isDelimiter(rest string, r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '(', ')', ':', '"', '<', '>':
		return true
	case '!':
		return strings.HasPrefix(rest, "!=")
	}
	return false
}

// scanQuoted reads a double-quoted string starting at q[start]. Backslash
// escapes the next character.
func scanQuoted(q string, start int) (token, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(q) {
		switch c := q[i]; c {
		case '\\':
			if i+1 < len(q) {
				b.WriteByte(q[i+1])
				i += 2
				continue
			}
			i++
		case '"':
			return token{kind: tkQuoted, text: b.String(), pos: start}, i + 1, nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return token{}, 0, &SyntaxError{Pos: start, Msg: "unterminated quoted string"}
}
