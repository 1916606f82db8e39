package nanoql

import "fmt"

// Parse turns a query into a Node. A blank query parses to nil, which
// matches every record.
func Parse(query string) (Node, error) {
	toks, err := scan(query)
	if err != nil {
		return nil, err
	}
	if len(toks) == 1 {
		return nil, nil
	}
	p := &parser{toks: toks}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tkEOF {
		return nil, p.errorf(t, "unexpected %s", t)
	}
	return n, nil
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tkEOF {
		p.i++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

// or := and { OR and }
func (p *parser) or() (Node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tkOr {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = Binary{Logic: Or, Left: left, Right: right}
	}
	return left, nil
}

// and := unary { [AND] unary }
func (p *parser) and() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tkAnd:
			p.next()
		case tkWord, tkQuoted, tkNot, tkLParen:
		default:
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = Binary{Logic: And, Left: left, Right: right}
	}
}

// unary := NOT unary | primary
func (p *parser) unary() (Node, error) {
	if p.peek().kind == tkNot {
		p.next()
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Not{Expr: inner}, nil
	}
	return p.primary()
}

// primary := "(" or ")" | quoted | word [cmp value]
func (p *parser) primary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tkLParen:
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tkRParen {
			return nil, p.errorf(closing, "expected ) to close ( at offset %d, got %s", t.pos, closing)
		}
		return inner, nil
	case tkQuoted:
		return Term{Op: OpContains, Value: t.text}, nil
	case tkWord:
		if p.peek().kind != tkCmp {
			return Term{Op: OpContains, Value: t.text}, nil
		}
		cmp := p.next()
		v := p.next()
		switch v.kind {
		case tkWord, tkQuoted, tkAnd, tkOr, tkNot:
		default:
			return nil, p.errorf(v, "expected a value after %s%s, got %s", t.text, cmp.text, v)
		}
		return Term{Field: t.text, Op: cmp.op, Value: v.text}, nil
	}
	return nil, p.errorf(t, "unexpected %s", t)
}
