package filter

import (
	"fmt"
	"strings"

	"travelchat/internal/catalog"
	"travelchat/internal/utils"
)

// CompileError reports a predicate that could not be parsed or does not fit
// the schema. Offset is the byte position of the offending token, or -1.
type CompileError struct {
	Reason string
	Offset int
}

func (e *CompileError) Error() string {
	if e.Offset < 0 {
		return "invalid filter: " + e.Reason
	}
	return fmt.Sprintf("invalid filter at offset %d: %s", e.Offset, e.Reason)
}

// Compile parses predicate and validates it against schema. The predicate is
// only ever parsed; nothing in it is executed.
func Compile(predicate string, schema *catalog.Schema) (*Expression, error) {
	if strings.TrimSpace(predicate) == "" {
		return nil, &CompileError{Reason: "empty filter", Offset: -1}
	}
	if schema == nil {
		return nil, &CompileError{Reason: "no schema loaded", Offset: -1}
	}

	tokens, err := tokenize(predicate)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, schema: schema}
	root, err := p.parseTop()
	if err != nil {
		return nil, err
	}
	return newExpression(root), nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// fixed filters.
func MustCompile(predicate string, schema *catalog.Schema) *Expression {
	expr, err := Compile(predicate, schema)
	if err != nil {
		panic(err)
	}
	return expr
}

type parser struct {
	tokens []token
	pos    int
	schema *catalog.Schema
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return t, p.unexpected(t, kind.String())
	}
	return p.advance(), nil
}

func (p *parser) unexpected(t token, want string) error {
	got := t.kind.String()
	if t.text != "" {
		got = fmt.Sprintf("%q", t.text)
	}
	return &CompileError{Reason: fmt.Sprintf("expected %s, found %s", want, got), Offset: t.pos}
}

// parseTop strips the optional df[ ... ] wrapper and requires the whole
// input to be consumed.
func (p *parser) parseTop() (Node, error) {
	wrapped := false
	if p.peek().kind == tokWrapOpen {
		p.advance()
		wrapped = true
	}

	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if wrapped {
		if _, err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected(t, "AND, OR or end of filter")
	}
	return root, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = join(Or, left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = join(And, left, right)
	}
	return left, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent, tokColumn:
		return p.parseComparison()
	case tokEOF:
		return nil, &CompileError{Reason: "filter ends where a comparison was expected", Offset: t.pos}
	default:
		return nil, p.unexpected(t, "a column or '('")
	}
}

func (p *parser) parseComparison() (Node, error) {
	colTok := p.advance()

	col, ok := p.schema.Lookup(colTok.text)
	if !ok {
		reason := fmt.Sprintf("unknown column %q", colTok.text)
		if guess, found := utils.ClosestMatch(colTok.text, p.schema.Names()); found {
			reason += fmt.Sprintf(" (did you mean %q?)", guess)
		}
		return nil, &CompileError{Reason: reason, Offset: colTok.pos}
	}

	opTok, err := p.expect(tokOp)
	if err != nil {
		return nil, err
	}

	litTok := p.advance()
	lit, err := literalFrom(litTok)
	if err != nil {
		return nil, err
	}

	if err := checkTypes(col, opTok, lit); err != nil {
		return nil, err
	}

	return &Comparison{Column: col.Name, Op: opTok.op, Literal: lit}, nil
}

func literalFrom(t token) (Literal, error) {
	switch t.kind {
	case tokNumber:
		return Literal{Kind: LiteralNumber, Num: t.num}, nil
	case tokBool:
		return Literal{Kind: LiteralBool, Bool: t.b}, nil
	case tokString:
		return Literal{Kind: LiteralString, Text: t.text}, nil
	case tokIdent, tokColumn:
		return Literal{}, &CompileError{
			Reason: fmt.Sprintf("comparing two columns is not supported (%q)", t.text),
			Offset: t.pos,
		}
	case tokEOF:
		return Literal{}, &CompileError{Reason: "missing value after operator", Offset: t.pos}
	default:
		return Literal{}, &CompileError{Reason: fmt.Sprintf("expected a value, found %s", t.kind), Offset: t.pos}
	}
}

func checkTypes(col catalog.Column, opTok token, lit Literal) error {
	var want LiteralKind
	switch col.Type {
	case catalog.Numeric:
		want = LiteralNumber
	case catalog.Boolean:
		want = LiteralBool
	default:
		want = LiteralString
	}

	if lit.Kind != want {
		return &CompileError{
			Reason: fmt.Sprintf("column %q is %s but was compared with a %s", col.Name, col.Type, lit.Kind),
			Offset: opTok.pos,
		}
	}
	if opTok.op.Ordering() && !col.Type.Ordered() {
		return &CompileError{
			Reason: fmt.Sprintf("operator %s is not allowed on %s column %q", opTok.text, col.Type, col.Name),
			Offset: opTok.pos,
		}
	}
	return nil
}

// join flattens chains of the same connective so a AND b AND c is one node.
func join(op Logic, left, right Node) Node {
	var children []Node
	for _, n := range []Node{left, right} {
		if b, ok := n.(*Boolean); ok && b.Op == op {
			children = append(children, b.Children...)
			continue
		}
		children = append(children, n)
	}
	return &Boolean{Op: op, Children: children}
}
