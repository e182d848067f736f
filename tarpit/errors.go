package tarpit

import (
	"errors"
	"fmt"

	"github.com/nonibytes/tarpit/tarpit/query"
)

type ErrorKind string

const (
	ErrLex                ErrorKind = "lex"
	ErrParse              ErrorKind = "parse"
	ErrSemantic           ErrorKind = "semantic"
	ErrValidation         ErrorKind = "validation"
	ErrReferenceCollision ErrorKind = "reference_collision"
	ErrReferenceMismatch  ErrorKind = "reference_mismatch"
	ErrReferenceNotFound  ErrorKind = "reference_not_found"
	ErrWouldOrphanRecord  ErrorKind = "would_orphan_record"
	ErrSchema             ErrorKind = "schema"
	ErrIO                 ErrorKind = "io"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func SchemaError(msg string) *Error {
	return &Error{Kind: ErrSchema, Message: msg}
}

func ValidationError(field, msg string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: msg}
}

func NotFoundError(ref Ref) *Error {
	return &Error{Kind: ErrReferenceNotFound, Message: "cannot find " + ref.Describe("or")}
}

// queryError lifts a positioned query error into the store taxonomy. The
// original stays reachable through errors.As for caret rendering.
func queryError(err error) error {
	var qe *query.Error
	if !errors.As(err, &qe) {
		return err
	}
	kind := ErrParse
	switch qe.Kind {
	case query.ErrLex:
		kind = ErrLex
	case query.ErrSemantic:
		kind = ErrSemantic
	}
	return &Error{Kind: kind, Message: "invalid query", Cause: qe}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
