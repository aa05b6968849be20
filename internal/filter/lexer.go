package filter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF      tokenKind = iota
	tokIdent              // bed_count, pricing/rate/amount
	tokColumn             // `quoted name` or df['quoted name']
	tokString             // 'text' or "text"
	tokNumber             // 2, -1.5, 1e3
	tokBool               // true, False
	tokOp                 // == != < <= > >=
	tokAnd                // AND, and, &, &&
	tokOr                 // OR, or, |, ||
	tokLParen             // (
	tokRParen             // )
	tokWrapOpen           // df[ opening a legacy dataframe selection
	tokRBracket           // ]
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent, tokColumn:
		return "column"
	case tokString:
		return "string"
	case tokNumber:
		return "number"
	case tokBool:
		return "boolean"
	case tokOp:
		return "operator"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokWrapOpen:
		return "'df['"
	case tokRBracket:
		return "']'"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string // column name, unquoted string, or source spelling
	num  float64
	b    bool
	op   Op
	pos  int
}

// lexer splits a predicate into tokens. It never evaluates anything.
type lexer struct {
	input  string
	pos    int
	tokens []token
}

func tokenize(input string) ([]token, error) {
	l := &lexer{input: input}
	for {
		l.skipSpace()
		if l.pos >= len(l.input) {
			l.tokens = append(l.tokens, token{kind: tokEOF, pos: l.pos})
			return l.tokens, nil
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) peekRune() (rune, int) {
	if l.pos >= len(l.input) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(l.input[l.pos:])
}

func (l *lexer) skipSpace() {
	for {
		r, size := l.peekRune()
		if size == 0 || !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *lexer) emit(t token) { l.tokens = append(l.tokens, t) }

func (l *lexer) next() error {
	start := l.pos
	r, size := l.peekRune()

	switch {
	case r == '(':
		l.pos++
		l.emit(token{kind: tokLParen, text: "(", pos: start})
	case r == ')':
		l.pos++
		l.emit(token{kind: tokRParen, text: ")", pos: start})
	case r == ']':
		l.pos++
		l.emit(token{kind: tokRBracket, text: "]", pos: start})
	case r == '`':
		name, err := l.readQuoted('`')
		if err != nil {
			return err
		}
		l.emit(token{kind: tokColumn, text: name, pos: start})
	case r == '\'' || r == '"':
		s, err := l.readQuoted(byte(r))
		if err != nil {
			return err
		}
		l.emit(token{kind: tokString, text: s, pos: start})
	case r == '&' || r == '|':
		l.pos++
		if l.pos < len(l.input) && rune(l.input[l.pos]) == r {
			l.pos++
		}
		kind := tokAnd
		if r == '|' {
			kind = tokOr
		}
		l.emit(token{kind: kind, text: l.input[start:l.pos], pos: start})
	case r == '≠' || r == '≤' || r == '≥':
		l.pos += size
		op := map[rune]Op{'≠': OpNe, '≤': OpLe, '≥': OpGe}[r]
		l.emit(token{kind: tokOp, op: op, text: string(r), pos: start})
	case r == '=' || r == '!' || r == '<' || r == '>':
		return l.readOperator()
	case isNumberStart(l.input[l.pos:]):
		return l.readNumber()
	case r == '_' || unicode.IsLetter(r):
		return l.readWord()
	default:
		return &CompileError{Reason: fmt.Sprintf("unexpected character %q", r), Offset: start}
	}
	return nil
}

func (l *lexer) readOperator() error {
	start := l.pos
	two := ""
	if l.pos+2 <= len(l.input) {
		two = l.input[l.pos : l.pos+2]
	}
	var op Op
	switch two {
	case "==":
		op = OpEq
	case "!=":
		op = OpNe
	case "<=":
		op = OpLe
	case ">=":
		op = OpGe
	default:
		two = ""
	}
	if two != "" {
		l.pos += 2
		l.emit(token{kind: tokOp, op: op, text: two, pos: start})
		return nil
	}

	switch l.input[l.pos] {
	case '=':
		op = OpEq
	case '<':
		op = OpLt
	case '>':
		op = OpGt
	default:
		return &CompileError{Reason: "negation is not supported; use != on a single comparison", Offset: start}
	}
	l.pos++
	l.emit(token{kind: tokOp, op: op, text: l.input[start:l.pos], pos: start})
	return nil
}

// readQuoted consumes a quoted run starting at the opening quote. Backslash
// escapes the next character.
func (l *lexer) readQuoted(quote byte) (string, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.input):
			b.WriteByte(l.input[l.pos+1])
			l.pos += 2
		case c == quote:
			l.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return "", &CompileError{Reason: fmt.Sprintf("unterminated %c quote", quote), Offset: start}
}

func isNumberStart(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' || s[0] == '+' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
	}
	return i < len(s) && s[i] >= '0' && s[i] <= '9'
}

func (l *lexer) readNumber() error {
	start := l.pos
	s := l.input
	i := l.pos
	if s[i] == '-' || s[i] == '+' {
		i++
	}
	digits := func() {
		for i < len(s) && ((s[i] >= '0' && s[i] <= '9') || s[i] == '_') {
			i++
		}
	}
	digits()
	if i < len(s) && s[i] == '.' {
		i++
		digits()
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '-' || s[j] == '+') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			i = j
			digits()
		}
	}

	text := s[start:i]
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return &CompileError{Reason: fmt.Sprintf("invalid number %q", text), Offset: start}
	}
	l.pos = i
	if l.pos < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[l.pos:]); r == '_' || unicode.IsLetter(r) {
			return &CompileError{Reason: fmt.Sprintf("invalid number %q", text+string(r)), Offset: start}
		}
	}
	l.emit(token{kind: tokNumber, num: f, text: text, pos: start})
	return nil
}

func isWordRune(r rune) bool {
	return r == '_' || r == '/' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) readWord() error {
	start := l.pos
	for {
		r, size := l.peekRune()
		if size == 0 || !isWordRune(r) {
			break
		}
		l.pos += size
	}
	word := l.input[start:l.pos]

	if word == "df" {
		return l.readFrameAccess(start)
	}

	switch strings.ToUpper(word) {
	case "AND":
		l.emit(token{kind: tokAnd, text: word, pos: start})
	case "OR":
		l.emit(token{kind: tokOr, text: word, pos: start})
	case "NOT":
		return &CompileError{Reason: "negation is not supported; use != on a single comparison", Offset: start}
	case "TRUE":
		l.emit(token{kind: tokBool, b: true, text: word, pos: start})
	case "FALSE":
		l.emit(token{kind: tokBool, b: false, text: word, pos: start})
	default:
		l.emit(token{kind: tokIdent, text: word, pos: start})
	}
	return nil
}

// readFrameAccess handles the legacy dataframe shapes df['col'] and
// df[ ... ]. A bare df is just an identifier.
func (l *lexer) readFrameAccess(start int) error {
	l.skipSpace()
	if l.pos >= len(l.input) || l.input[l.pos] != '[' {
		l.emit(token{kind: tokIdent, text: "df", pos: start})
		return nil
	}
	l.pos++
	l.skipSpace()

	if l.pos < len(l.input) && (l.input[l.pos] == '\'' || l.input[l.pos] == '"') {
		name, err := l.readQuoted(l.input[l.pos])
		if err != nil {
			return err
		}
		l.skipSpace()
		if l.pos >= len(l.input) || l.input[l.pos] != ']' {
			return &CompileError{Reason: fmt.Sprintf("expected ']' after df[%q", name), Offset: l.pos}
		}
		l.pos++
		l.emit(token{kind: tokColumn, text: name, pos: start})
		return nil
	}

	l.emit(token{kind: tokWrapOpen, text: "df[", pos: start})
	return nil
}

// QuoteColumn returns name as it should be written in a filter: bare when
// it lexes as an identifier, in backticks otherwise.
func QuoteColumn(name string) string {
	bare := name != ""
	for i, r := range name {
		if i == 0 && !(r == '_' || unicode.IsLetter(r)) {
			bare = false
			break
		}
		if !isWordRune(r) {
			bare = false
			break
		}
	}
	switch strings.ToUpper(name) {
	case "AND", "OR", "NOT", "TRUE", "FALSE", "DF":
		bare = false
	}
	if bare {
		return name
	}
	return "`" + name + "`"
}
