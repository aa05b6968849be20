package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind tags the contents of a Value
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNumber
	KindBool
	KindText
)

// Value is one cell of a listing. The zero Value is absent.
type Value struct {
	Kind Kind
	Num  float64
	Bool bool
	// Text holds the string for KindText and the source spelling for
	// KindNumber, so ids keep every digit on the way out.
	Text string
}

// Absent returns the missing value.
func Absent() Value { return Value{} }

// Number builds a numeric value. raw is the spelling to emit; when it is not
// a valid JSON number the float is formatted instead. NaN and infinities
// are absent.
func Number(f float64, raw string) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Absent()
	}
	if !isJSONNumber(raw) {
		raw = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return Value{Kind: KindNumber, Num: f, Text: raw}
}

func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func Text(s string) Value { return Value{Kind: KindText, Text: s} }

func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// Interface returns the wire representation. Absent values become "".
func (v Value) Interface() any {
	switch v.Kind {
	case KindNumber:
		return json.Number(v.Text)
	case KindBool:
		return v.Bool
	case KindText:
		return v.Text
	default:
		return ""
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber, KindText:
		return v.Text
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

func isJSONNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return json.Valid([]byte(s))
}

// Row is one listing, aligned positionally with the table header.
type Row []Value

// Table is a loaded listing dataset. It is never mutated after construction
// and may be shared between goroutines.
type Table struct {
	Header []string
	Rows   []Row

	index map[string]int
}

// NewTable indexes header names. The first occurrence of a repeated name
// wins.
func NewTable(header []string, rows []Row) *Table {
	t := &Table{
		Header: header,
		Rows:   rows,
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t
}

func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of a column in every row.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Cell returns a row's value for a column position; short rows read as
// absent.
func (t *Table) Cell(row, col int) Value {
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return Absent()
	}
	return r[col]
}

// AllRows returns every row index in order.
func (t *Table) AllRows() []int {
	out := make([]int, len(t.Rows))
	for i := range out {
		out[i] = i
	}
	return out
}
