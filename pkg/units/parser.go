package units

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokMul
	tokDiv
	tokPow
	tokMinus
	tokPlus
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// parser is a recursive descent parser over unit expressions:
//
//	expr     = factor { ("*" | "/" | <space>) factor }
//	factor   = primary [ ("^" | "**") power ]
//	primary  = ident | "1" | "(" expr ")"
//	power    = ["-" | "+"] number ["/" number] | "(" power ")"
type parser struct {
	registry *Registry
	input    string
	tokens   []token
	pos      int
}

func (p *parser) parse() (Units, error) {
	if p.input == "" || p.input == "dimensionless" {
		return Units{}, nil
	}
	tokens, err := tokenize(p.input)
	if err != nil {
		return nil, p.fail(err.Error())
	}
	p.tokens = tokens
	u, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.fail(fmt.Sprintf("unexpected %q at offset %d", t.text, t.pos))
	}
	return u.Merge(), nil
}

func (p *parser) fail(msg string) error {
	return &ErrUnsupportedUnit{Name: p.input, Message: msg}
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr() (Units, error) {
	result, err := p.factor()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokMul:
			p.next()
			rhs, err := p.factor()
			if err != nil {
				return nil, err
			}
			result = result.Mul(rhs)
		case tokDiv:
			p.next()
			rhs, err := p.factor()
			if err != nil {
				return nil, err
			}
			result = result.Mul(rhs.Pow(Int(-1)))
		case tokIdent, tokLParen:
			// juxtaposition, e.g. "N m"
			rhs, err := p.factor()
			if err != nil {
				return nil, err
			}
			result = result.Mul(rhs)
		default:
			return result, nil
		}
	}
}

func (p *parser) factor() (Units, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	p.next()
	e, err := p.power()
	if err != nil {
		return nil, err
	}
	return base.Pow(e), nil
}

func (p *parser) primary() (Units, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		res, err := p.registry.Lookup(t.text)
		if err != nil {
			return nil, err
		}
		return Units{{Name: res.Name, Exponent: Int(1)}}, nil
	case tokNumber:
		if t.text != "1" {
			return nil, p.fail(fmt.Sprintf("numeric factor %q is not a unit", t.text))
		}
		return Units{}, nil
	case tokLParen:
		u, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.fail(fmt.Sprintf("missing ')' at offset %d", closing.pos))
		}
		return u, nil
	default:
		return nil, p.fail(fmt.Sprintf("unexpected %q at offset %d", t.text, t.pos))
	}
}

func (p *parser) power() (Exponent, error) {
	if p.peek().kind == tokLParen {
		p.next()
		e, err := p.power()
		if err != nil {
			return Exponent{}, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return Exponent{}, p.fail(fmt.Sprintf("missing ')' at offset %d", closing.pos))
		}
		return e, nil
	}
	sign := ""
	switch p.peek().kind {
	case tokMinus:
		p.next()
		sign = "-"
	case tokPlus:
		p.next()
	}
	num := p.next()
	if num.kind != tokNumber {
		return Exponent{}, p.fail(fmt.Sprintf("expected exponent at offset %d", num.pos))
	}
	text := sign + num.text
	// a fraction is only consumed inside parentheses or when directly followed by a number,
	// so "m^2/s" still divides by seconds
	if p.peek().kind == tokDiv && p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].kind == tokNumber {
		p.next()
		text += "/" + p.next().text
	}
	e, err := ParseExponent(text)
	if err != nil {
		return Exponent{}, p.fail(err.Error())
	}
	return e, nil
}

func tokenize(s string) ([]token, error) {
	var tokens []token
	runes := []rune(s)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				tokens = append(tokens, token{tokPow, "**", i})
				i += 2
			} else {
				tokens = append(tokens, token{tokMul, "*", i})
				i++
			}
		case r == '·' || r == '.':
			tokens = append(tokens, token{tokMul, string(r), i})
			i++
		case r == '/':
			tokens = append(tokens, token{tokDiv, "/", i})
			i++
		case r == '^':
			tokens = append(tokens, token{tokPow, "^", i})
			i++
		case r == '-':
			tokens = append(tokens, token{tokMinus, "-", i})
			i++
		case r == '+':
			tokens = append(tokens, token{tokPlus, "+", i})
			i++
		case r == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case r == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{tokNumber, string(runes[start:i]), start})
		case unicode.IsLetter(r) || r == '_' || r == 'µ' || r == 'Ω' || r == '°':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || runes[i] == '_' || runes[i] == 'µ' || runes[i] == 'Ω' || runes[i] == '°') {
				i++
			}
			tokens = append(tokens, token{tokIdent, string(runes[start:i]), start})
		default:
			return nil, fmt.Errorf("unexpected character %q", strings.TrimSpace(string(r)))
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(runes)}), nil
}
