package filter

import (
	"strings"

	"travelchat/internal/model"
)

// RowSet holds matching row indexes in ascending order.
type RowSet []int

type rowPredicate func(model.Row) bool

// Evaluate returns the rows of table that satisfy expr. A nil expression
// matches every row. Evaluation is pure: the table is only read.
func Evaluate(expr *Expression, table *model.Table) RowSet {
	if table == nil {
		return RowSet{}
	}
	if expr == nil {
		return RowSet(table.AllRows())
	}

	match := bind(expr.root, table)
	out := make(RowSet, 0)
	for i, row := range table.Rows {
		if match(row) {
			out = append(out, i)
		}
	}
	return out
}

// bind resolves column positions once and returns a closure per node.
func bind(n Node, table *model.Table) rowPredicate {
	switch node := n.(type) {
	case *Comparison:
		return bindComparison(node, table)
	case *Boolean:
		preds := make([]rowPredicate, len(node.Children))
		for i, child := range node.Children {
			preds[i] = bind(child, table)
		}
		if node.Op == Or {
			return func(r model.Row) bool {
				for _, p := range preds {
					if p(r) {
						return true
					}
				}
				return false
			}
		}
		return func(r model.Row) bool {
			for _, p := range preds {
				if !p(r) {
					return false
				}
			}
			return true
		}
	default:
		return func(model.Row) bool { return false }
	}
}

func bindComparison(c *Comparison, table *model.Table) rowPredicate {
	idx, ok := table.ColumnIndex(c.Column)
	if !ok {
		return func(model.Row) bool { return false }
	}
	lit := c.Literal
	op := c.Op

	return func(r model.Row) bool {
		if idx >= len(r) {
			return false
		}
		v := r[idx]
		switch lit.Kind {
		case LiteralNumber:
			if v.Kind != model.KindNumber {
				return false
			}
			return compareOrdered(v.Num, lit.Num, op)
		case LiteralBool:
			if v.Kind != model.KindBool {
				return false
			}
			switch op {
			case OpEq:
				return v.Bool == lit.Bool
			case OpNe:
				return v.Bool != lit.Bool
			}
			return false
		default:
			if v.Kind != model.KindText {
				return false
			}
			return compareOrdered(strings.Compare(v.Text, lit.Text), 0, op)
		}
	}
}

func compareOrdered[T int | float64](a, b T, op Op) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	}
	return false
}
