package query

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

type ErrorKind string

const (
	ErrLex      ErrorKind = "lex"
	ErrParse    ErrorKind = "parse"
	ErrSemantic ErrorKind = "semantic"
)

// Error is a query failure positioned at a byte offset of the source
type Error struct {
	Kind ErrorKind
	Pos  int
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s error at %d: %s", e.Kind, e.Pos, e.Msg)
}

// Caret renders the message followed by the source and a caret under the
// character holding the offending byte.
func (e *Error) Caret(source string) string {
	pos := e.Pos
	if pos < 0 {
		pos = 0
	}
	if pos > len(source) {
		pos = len(source)
	}
	var sb strings.Builder
	sb.WriteString(e.Msg)
	sb.WriteString("\n    ")
	sb.WriteString(source)
	sb.WriteString("\n    ")
	sb.WriteString(strings.Repeat(" ", utf8.RuneCountInString(source[:pos])))
	sb.WriteString("^")
	return sb.String()
}

func lexError(pos int, msg string) *Error {
	return &Error{Kind: ErrLex, Pos: pos, Msg: msg}
}

func parseError(pos int, msg string) *Error {
	return &Error{Kind: ErrParse, Pos: pos, Msg: msg}
}

func semanticError(pos int, msg string) *Error {
	return &Error{Kind: ErrSemantic, Pos: pos, Msg: msg}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
