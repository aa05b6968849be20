package filter

import (
	"strconv"
	"strings"
)

// Op is a comparison operator
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// Ordering reports whether the operator needs an ordered column type.
func (o Op) Ordering() bool {
	return o != OpEq && o != OpNe
}

// Logic combines child nodes
type Logic int

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

// LiteralKind is the type of a comparison literal
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralBool
	LiteralString
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralNumber:
		return "number"
	case LiteralBool:
		return "boolean"
	default:
		return "string"
	}
}

// Literal is a typed constant on the right-hand side of a comparison
type Literal struct {
	Kind LiteralKind
	Num  float64
	Bool bool
	Text string
}

func (l Literal) String() string {
	switch l.Kind {
	case LiteralNumber:
		return strconv.FormatFloat(l.Num, 'g', -1, 64)
	case LiteralBool:
		if l.Bool {
			return "true"
		}
		return "false"
	default:
		return `"` + literalEscaper.Replace(l.Text) + `"`
	}
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Node is an element of a compiled filter expression.
type Node interface {
	String() string
	walk(fn func(*Comparison))
}

// Comparison is a leaf: column op literal.
type Comparison struct {
	Column  string
	Op      Op
	Literal Literal
}

func (c *Comparison) String() string {
	return "`" + c.Column + "` " + c.Op.String() + " " + c.Literal.String()
}

func (c *Comparison) walk(fn func(*Comparison)) { fn(c) }

// Boolean joins two or more children with AND or OR.
type Boolean struct {
	Op       Logic
	Children []Node
}

func (b *Boolean) String() string {
	parts := make([]string, len(b.Children))
	for i, child := range b.Children {
		s := child.String()
		if _, nested := child.(*Boolean); nested {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, " "+b.Op.String()+" ")
}

func (b *Boolean) walk(fn func(*Comparison)) {
	for _, child := range b.Children {
		child.walk(fn)
	}
}

// Expression is a validated filter. It is immutable once compiled.
type Expression struct {
	root    Node
	columns []string
}

func newExpression(root Node) *Expression {
	var columns []string
	seen := make(map[string]bool)
	root.walk(func(c *Comparison) {
		if !seen[c.Column] {
			seen[c.Column] = true
			columns = append(columns, c.Column)
		}
	})
	return &Expression{root: root, columns: columns}
}

// Root returns the top node of the tree.
func (e *Expression) Root() Node { return e.root }

// Columns returns each referenced column once, in first-occurrence order.
func (e *Expression) Columns() []string {
	out := make([]string, len(e.columns))
	copy(out, e.columns)
	return out
}

// String renders the expression in the canonical filter syntax. The
// result compiles back to an equivalent expression.
func (e *Expression) String() string { return e.root.String() }
