package query

import (
	"fmt"
	"strings"

	"github.com/nonibytes/tarpit/tarpit/value"
)

// Expr represents a query expression
type Expr interface {
	isExpr()
	String() string
}

// Not negates an expression
type Not struct {
	Inner Expr
}

func (Not) isExpr() {}

func (n Not) String() string { return "!(" + n.Inner.String() + ")" }

// And is true when every term is true. Terms are evaluated left to right.
type And struct {
	Terms []Expr
}

func (And) isExpr() {}

func (a And) String() string { return joinTerms("and", a.Terms) }

// Or is true when any term is true. Terms are evaluated left to right.
type Or struct {
	Terms []Expr
}

func (Or) isExpr() {}

func (o Or) String() string { return joinTerms("or", o.Terms) }

func joinTerms(op string, terms []Expr) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}

// CmpOp is a comparison operator
type CmpOp int

const (
	CmpLt CmpOp = iota
	CmpLte
	CmpEq
	CmpNe
	CmpGte
	CmpGt
)

func (op CmpOp) String() string {
	switch op {
	case CmpLt:
		return "<"
	case CmpLte:
		return "<="
	case CmpEq:
		return "="
	case CmpNe:
		return "<>"
	case CmpGte:
		return ">="
	case CmpGt:
		return ">"
	default:
		return "?"
	}
}

// Mirror returns the operator with its operands swapped: a < b is b > a
func (op CmpOp) Mirror() CmpOp {
	switch op {
	case CmpLt:
		return CmpGt
	case CmpLte:
		return CmpGte
	case CmpGt:
		return CmpLt
	case CmpGte:
		return CmpLte
	default:
		return op
	}
}

// Ordering reports whether the operator needs an orderable field
func (op CmpOp) Ordering() bool {
	return op != CmpEq && op != CmpNe
}

// Holds applies the operator to the result of value.Compare
func (op CmpOp) Holds(cmp int) bool {
	switch op {
	case CmpLt:
		return cmp < 0
	case CmpLte:
		return cmp <= 0
	case CmpEq:
		return cmp == 0
	case CmpNe:
		return cmp != 0
	case CmpGte:
		return cmp >= 0
	case CmpGt:
		return cmp > 0
	default:
		return false
	}
}

// Compare tests "Field Op Value"
type Compare struct {
	Op    CmpOp
	Field string
	Value value.Value
}

func (Compare) isExpr() {}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value)
}

// Range tests Low <(=) Field <(=) High
type Range struct {
	Field         string
	LowInclusive  bool
	Low           value.Value
	HighInclusive bool
	High          value.Value
}

func (Range) isExpr() {}

func (r Range) String() string {
	lo, hi := "<", "<"
	if r.LowInclusive {
		lo = "<="
	}
	if r.HighInclusive {
		hi = "<="
	}
	return fmt.Sprintf("%s %s %s %s %s", r.Low, lo, r.Field, hi, r.High)
}

// IsNull is true when the record lacks the field
type IsNull struct {
	Field string
}

func (IsNull) isExpr() {}

func (n IsNull) String() string { return n.Field + " is null" }

// IsIn is true when the field equals any member of Values. Members are
// distinct; their order carries no meaning.
type IsIn struct {
	Field  string
	Values []value.Value
}

func (IsIn) isExpr() {}

func (n IsIn) String() string {
	parts := make([]string, len(n.Values))
	for i, v := range n.Values {
		parts[i] = v.String()
	}
	return n.Field + " in (" + strings.Join(parts, ", ") + ")"
}

// Like matches the field against a '%' wildcard pattern
type Like struct {
	Field   string
	Pattern Pattern
}

func (Like) isExpr() {}

func (n Like) String() string {
	return fmt.Sprintf("%s like %q", n.Field, n.Pattern.Source)
}
