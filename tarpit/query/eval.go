package query

import (
	"fmt"

	"github.com/nonibytes/tarpit/tarpit/value"
)

// Eval evaluates expr against one record. A field missing from the record
// makes every node false except IsNull.
func Eval(expr Expr, rec value.Record) bool {
	switch e := expr.(type) {
	case Not:
		return !Eval(e.Inner, rec)

	case And:
		for _, t := range e.Terms {
			if !Eval(t, rec) {
				return false
			}
		}
		return true

	case Or:
		for _, t := range e.Terms {
			if Eval(t, rec) {
				return true
			}
		}
		return false

	case IsNull:
		_, ok := rec[e.Field]
		return !ok

	case Compare:
		v, ok := rec[e.Field]
		if !ok {
			return false
		}
		return anyElement(v, func(x value.Value) bool {
			return e.Op.Holds(value.Compare(x, e.Value))
		})

	case Range:
		v, ok := rec[e.Field]
		if !ok {
			return false
		}
		return anyElement(v, func(x value.Value) bool {
			lo := value.Compare(e.Low, x)
			hi := value.Compare(x, e.High)
			if lo > 0 || (lo == 0 && !e.LowInclusive) {
				return false
			}
			return hi < 0 || (hi == 0 && e.HighInclusive)
		})

	case IsIn:
		v, ok := rec[e.Field]
		if !ok {
			return false
		}
		return anyElement(v, func(x value.Value) bool {
			for _, m := range e.Values {
				if value.Equal(x, m) {
					return true
				}
			}
			return false
		})

	case Like:
		v, ok := rec[e.Field]
		if !ok {
			return false
		}
		return e.Pattern.Match(v.Text())

	default:
		panic(fmt.Sprintf("query: unknown expression type %T", expr))
	}
}

// anyElement applies pred to a scalar, or to each item of a list
func anyElement(v value.Value, pred func(value.Value) bool) bool {
	for _, x := range v.Elements() {
		if pred(x) {
			return true
		}
	}
	return false
}

// KeyEquality reports whether expr is a single equality test on one of the
// given key fields, returning the field and the value compared against.
func KeyEquality(expr Expr, keys []string) (string, value.Value, bool) {
	c, ok := expr.(Compare)
	if !ok || c.Op != CmpEq {
		return "", value.Value{}, false
	}
	for _, k := range keys {
		if k == c.Field {
			return c.Field, c.Value, true
		}
	}
	return "", value.Value{}, false
}
