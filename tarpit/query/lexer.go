package query

import (
	"strconv"
	"strings"
)

// Token represents a lexical token
type Token struct {
	Kind  TokenKind
	Value string // symbol name, string contents, or key field of a kv literal
	Num   int64  // integer value, or number of a kv literal
	Pos   int    // byte offset in the source
}

// TokenKind is the type of token
type TokenKind int

const (
	TokInt TokenKind = iota
	TokString
	TokLt
	TokLte
	TokEq
	TokNe
	TokGte
	TokGt
	TokBang
	TokNot
	TokAnd
	TokOr
	TokLParen
	TokRParen
	TokComma
	TokIsNull
	TokNotNull
	TokIsIn
	TokIsNotIn
	TokLike
	TokNotLike
	TokKV
	TokSymbol
	TokEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokInt:
		return "integer"
	case TokString:
		return "string"
	case TokLt:
		return "<"
	case TokLte:
		return "<="
	case TokEq:
		return "="
	case TokNe:
		return "<>"
	case TokGte:
		return ">="
	case TokGt:
		return ">"
	case TokBang:
		return "!"
	case TokNot:
		return "not"
	case TokAnd:
		return "and"
	case TokOr:
		return "or"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	case TokComma:
		return ","
	case TokIsNull:
		return "is null"
	case TokNotNull:
		return "is not null"
	case TokIsIn:
		return "in ("
	case TokIsNotIn:
		return "not in ("
	case TokLike:
		return "like"
	case TokNotLike:
		return "not like"
	case TokKV:
		return "key literal"
	case TokSymbol:
		return "symbol"
	case TokEOF:
		return "end of query"
	default:
		return "unknown"
	}
}

// IsRelop reports whether the token kind is a relational operator
func (k TokenKind) IsRelop() bool {
	return k >= TokLt && k <= TokGt
}

// Lexer tokenizes a query string
type Lexer struct {
	input string
	pos   int
	keys  []string
}

// NewLexer creates a new lexer for the input string. keys lists the field
// names accepted as kv-literal prefixes (e.g. "hd" for hd-1234).
func NewLexer(input string, keys []string) *Lexer {
	return &Lexer{
		input: input,
		pos:   0,
		keys:  keys,
	}
}

// Lex tokenizes the entire input. The result always ends with TokEOF.
func Lex(input string, keys []string) ([]Token, error) {
	lexer := NewLexer(input, keys)
	var tokens []Token

	for {
		tok, err := lexer.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}

	return tokens, nil
}

// Next returns the next token. Rules are tried in a fixed order and the
// first match wins.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Pos: len(l.input)}, nil
	}

	start := l.pos
	rules := []func() (Token, bool, error){
		l.scanInt,
		l.scanString,
		l.scanRelop,
		l.scanIsNull,
		l.scanKeyword,
		l.scanIn,
		l.scanLike,
		l.scanKV,
		l.scanSymbol,
	}
	for _, rule := range rules {
		tok, ok, err := rule()
		if err != nil {
			return Token{}, err
		}
		if ok {
			tok.Pos = start
			l.skipWhitespace()
			return tok, nil
		}
		l.pos = start
	}

	return Token{}, lexError(start, "unrecognized character "+strconv.QuoteRune(rune(l.input[start])))
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) peek(offset int) byte {
	pos := l.pos + offset
	if pos < len(l.input) {
		return l.input[pos]
	}
	return 0
}

func (l *Lexer) scanInt() (Token, bool, error) {
	start := l.pos
	if l.peek(0) == '-' {
		l.pos++
	}
	digits := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos == digits {
		return Token{}, false, nil
	}
	text := l.input[start:l.pos]
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{}, false, lexError(start, "integer out of range: "+text)
	}
	return Token{Kind: TokInt, Value: text, Num: n}, true, nil
}

// scanString reads a single- or double-quoted string. There is no escape
// processing: the string ends at the next matching quote.
func (l *Lexer) scanString() (Token, bool, error) {
	quote := l.peek(0)
	if quote != '"' && quote != '\'' {
		return Token{}, false, nil
	}
	end := strings.IndexByte(l.input[l.pos+1:], quote)
	if end < 0 {
		return Token{}, false, lexError(l.pos, "unterminated string")
	}
	body := l.input[l.pos+1 : l.pos+1+end]
	l.pos += end + 2
	return Token{Kind: TokString, Value: body}, true, nil
}

func (l *Lexer) scanRelop() (Token, bool, error) {
	two := ""
	if l.pos+2 <= len(l.input) {
		two = l.input[l.pos : l.pos+2]
	}
	switch two {
	case "==":
		l.pos += 2
		return Token{Kind: TokEq}, true, nil
	case "<=":
		l.pos += 2
		return Token{Kind: TokLte}, true, nil
	case ">=":
		l.pos += 2
		return Token{Kind: TokGte}, true, nil
	case "<>", "!=":
		l.pos += 2
		return Token{Kind: TokNe}, true, nil
	}
	switch l.peek(0) {
	case '=':
		l.pos++
		return Token{Kind: TokEq}, true, nil
	case '<':
		l.pos++
		return Token{Kind: TokLt}, true, nil
	case '>':
		l.pos++
		return Token{Kind: TokGt}, true, nil
	case '!':
		l.pos++
		return Token{Kind: TokBang}, true, nil
	}
	return Token{}, false, nil
}

// scanIsNull matches "is null" and "is not null"
func (l *Lexer) scanIsNull() (Token, bool, error) {
	if !l.word("is") || !l.spaces() {
		return Token{}, false, nil
	}
	kind := TokIsNull
	if l.word("not") {
		if !l.spaces() {
			return Token{}, false, nil
		}
		kind = TokNotNull
	}
	if !l.word("null") {
		return Token{}, false, nil
	}
	return Token{Kind: kind}, true, nil
}

func (l *Lexer) scanKeyword() (Token, bool, error) {
	switch l.peek(0) {
	case '(':
		l.pos++
		return Token{Kind: TokLParen}, true, nil
	case ')':
		l.pos++
		return Token{Kind: TokRParen}, true, nil
	case ',':
		l.pos++
		return Token{Kind: TokComma}, true, nil
	}
	if l.word("and") {
		return Token{Kind: TokAnd}, true, nil
	}
	if l.word("or") {
		return Token{Kind: TokOr}, true, nil
	}
	// "not" on its own only negates a parenthesised expression; "not in"
	// and "not like" belong to later rules.
	if l.word("not") {
		l.skipWhitespace()
		if l.peek(0) == '(' {
			return Token{Kind: TokNot}, true, nil
		}
	}
	return Token{}, false, nil
}

// scanIn matches "in (" and "not in (", consuming the parenthesis
func (l *Lexer) scanIn() (Token, bool, error) {
	kind := TokIsIn
	if l.word("not") {
		if !l.spaces() {
			return Token{}, false, nil
		}
		kind = TokIsNotIn
	}
	if !l.word("in") {
		return Token{}, false, nil
	}
	l.skipWhitespace()
	if l.peek(0) != '(' {
		return Token{}, false, nil
	}
	l.pos++
	return Token{Kind: kind}, true, nil
}

func (l *Lexer) scanLike() (Token, bool, error) {
	kind := TokLike
	if l.word("not") {
		if !l.spaces() {
			return Token{}, false, nil
		}
		kind = TokNotLike
	}
	if !l.word("like") {
		return Token{}, false, nil
	}
	return Token{Kind: kind}, true, nil
}

// scanKV matches a key-field prefix followed by digits, e.g. hd-1234 or tar77
func (l *Lexer) scanKV() (Token, bool, error) {
	for _, key := range l.keys {
		start := l.pos
		if !hasPrefixFold(l.input[l.pos:], key) {
			continue
		}
		l.pos += len(key)
		if l.peek(0) == '-' {
			l.pos++
		}
		digits := l.pos
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		if l.pos == digits || (l.pos < len(l.input) && isIdentChar(l.input[l.pos])) {
			l.pos = start
			continue
		}
		n, err := strconv.ParseInt(l.input[digits:l.pos], 10, 64)
		if err != nil {
			return Token{}, false, lexError(digits, "integer out of range: "+l.input[digits:l.pos])
		}
		return Token{Kind: TokKV, Value: key, Num: n}, true, nil
	}
	return Token{}, false, nil
}

func (l *Lexer) scanSymbol() (Token, bool, error) {
	if !isLetter(l.peek(0)) {
		return Token{}, false, nil
	}
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokSymbol, Value: l.input[start:l.pos]}, true, nil
}

// word consumes w (case-insensitive) when it is not followed by an
// identifier character.
func (l *Lexer) word(w string) bool {
	if !hasPrefixFold(l.input[l.pos:], w) {
		return false
	}
	end := l.pos + len(w)
	if end < len(l.input) && isIdentChar(l.input[end]) {
		return false
	}
	l.pos = end
	return true
}

// spaces consumes at least one whitespace character
func (l *Lexer) spaces() bool {
	start := l.pos
	l.skipWhitespace()
	return l.pos > start
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}
