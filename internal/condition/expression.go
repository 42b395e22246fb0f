// Package condition parses and evaluates the string conditions a layout edge
// may carry, such as `value == 'yes'` or `Q3 >= 4 AND NOT Q1 == no`.
//
// The left side of a comparison names a subject (the current answer, or the
// answer to another question). Bare words on the right side are literals, so
// `answer == yes` compares against the string "yes".
package condition

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Expr is a parsed condition.
type Expr interface {
	exprNode()
	String() string
}

// Logical is AND / OR.
type Logical struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*Logical) exprNode() {}

func (l *Logical) String() string {
	return "(" + l.Left.String() + " " + l.Op + " " + l.Right.String() + ")"
}

// Not negates its operand.
type Not struct {
	Expr Expr
}

func (*Not) exprNode() {}

func (n *Not) String() string { return "NOT " + n.Expr.String() }

// Comparison is <subject> <operator> <value>.
type Comparison struct {
	Subject string
	Op      Operator
	Value   interface{}
}

func (*Comparison) exprNode() {}

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %v", c.Subject, c.Op, c.Value)
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokOp
	tokString
	tokNumber
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func isWordStart(r byte) bool {
	return unicode.IsLetter(rune(r)) || r == '_'
}

func isWordPart(r byte) bool {
	return isWordStart(r) || unicode.IsDigit(rune(r)) || r == '.' || r == '-'
}

func tokenize(src string) ([]token, error) {
	var out []token
	for i := 0; i < len(src); {
		ch := src[i]
		switch {
		case unicode.IsSpace(rune(ch)):
			i++
		case ch == '(':
			out = append(out, token{tokLParen, "(", i})
			i++
		case ch == ')':
			out = append(out, token{tokRParen, ")", i})
			i++
		case ch == '&' || ch == '|':
			if i+1 >= len(src) || src[i+1] != ch {
				return nil, fmt.Errorf("unexpected %q at %d", ch, i)
			}
			word := "AND"
			if ch == '|' {
				word = "OR"
			}
			out = append(out, token{tokWord, word, i})
			i += 2
		case ch == '=' || ch == '!' || ch == '<' || ch == '>':
			two := i+1 < len(src) && src[i+1] == '='
			switch {
			case two:
				out = append(out, token{tokOp, src[i : i+2], i})
				i += 2
			case ch == '!':
				out = append(out, token{tokWord, "NOT", i})
				i++
			case ch == '=':
				out = append(out, token{tokOp, "==", i})
				i++
			default:
				out = append(out, token{tokOp, string(ch), i})
				i++
			}
		case ch == '"' || ch == '\'':
			s, next, err := readQuoted(src, i)
			if err != nil {
				return nil, err
			}
			out = append(out, token{tokString, s, i})
			i = next
		case unicode.IsDigit(rune(ch)) || (ch == '-' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))):
			j := i + 1
			for j < len(src) && (unicode.IsDigit(rune(src[j])) || src[j] == '.') {
				j++
			}
			// "3rd" or "1-2" are words, not numbers
			if j < len(src) && isWordPart(src[j]) {
				for j < len(src) && isWordPart(src[j]) {
					j++
				}
				out = append(out, token{tokWord, src[i:j], i})
			} else {
				out = append(out, token{tokNumber, src[i:j], i})
			}
			i = j
		case isWordStart(ch):
			j := i
			for j < len(src) && isWordPart(src[j]) {
				j++
			}
			out = append(out, token{tokWord, src[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at %d", ch, i)
		}
	}
	return append(out, token{tokEOF, "", len(src)}), nil
}

func readQuoted(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	for j := start + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			if j+1 < len(src) {
				j++
				b.WriteByte(src[j])
			}
		case quote:
			return b.String(), j + 1, nil
		default:
			b.WriteByte(src[j])
		}
	}
	return "", 0, fmt.Errorf("unterminated string at %d", start)
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(kw string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.val, kw)
}

// Parse turns a condition string into an Expr.
//
//	or      = and { "OR" and }
//	and     = unary { "AND" unary }
//	unary   = "NOT" unary | "(" or ")" | compare
//	compare = word op value
func Parse(src string) (Expr, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at %d", t.val, t.pos)
	}
	return e, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.keyword("NOT") {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{Expr: inner}, nil
	}
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, fmt.Errorf("expected ) at %d", t.pos)
		}
		return inner, nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (Expr, error) {
	subj := p.next()
	if subj.kind != tokWord {
		return nil, fmt.Errorf("expected subject at %d, got %q", subj.pos, subj.val)
	}
	var op Operator
	switch t := p.next(); {
	case t.kind == tokOp:
		op = Operator(t.val)
	case t.kind == tokWord && strings.EqualFold(t.val, string(OpContains)):
		op = OpContains
	default:
		return nil, fmt.Errorf("expected operator after %q at %d", subj.val, t.pos)
	}
	val, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &Comparison{Subject: subj.val, Op: op, Value: val}, nil
}

// parseValue reads the right-hand side. Words other than true/false are
// string literals.
func (p *parser) parseValue() (interface{}, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return t.val, nil
	case tokNumber:
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.val)
		}
		return f, nil
	case tokWord:
		switch strings.ToLower(t.val) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return t.val, nil
	}
	return nil, fmt.Errorf("expected value at %d", t.pos)
}
