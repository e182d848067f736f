package value

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type tag of a Value
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindDate
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a field value or query literal
type Value struct {
	Kind Kind
	Num  int64
	Str  string // string and date payload
	List []string
}

func Int(n int64) Value { return Value{Kind: KindInt, Num: n} }

func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Date wraps an already normalized YYYY-MM-DD string
func Date(s string) Value { return Value{Kind: KindDate, Str: s} }

func List(items ...string) Value {
	out := make([]string, len(items))
	copy(out, items)
	return Value{Kind: KindList, List: out}
}

// Text returns the string form used for lexical comparison and index keys.
// List items are concatenated without a separator.
func (v Value) Text() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Num, 10)
	case KindList:
		return strings.Join(v.List, "")
	default:
		return v.Str
	}
}

// String renders the value as it would appear in a query
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Num, 10)
	case KindList:
		parts := make([]string, len(v.List))
		for i, s := range v.List {
			parts[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return strconv.Quote(v.Str)
	}
}

// Elements returns the scalar values a list holds, or the value itself
func (v Value) Elements() []Value {
	if v.Kind != KindList {
		return []Value{v}
	}
	out := make([]Value, len(v.List))
	for i, s := range v.List {
		out[i] = String(s)
	}
	return out
}

// Compare orders two values: numerically when both are integers, lexically otherwise.
func Compare(a, b Value) int {
	if a.Kind == KindInt && b.Kind == KindInt {
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	}
	return strings.Compare(a.Text(), b.Text())
}

func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// Record maps field names to values
type Record map[string]Value

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if v.Kind == KindList {
			v = List(v.List...)
		}
		out[k] = v
	}
	return out
}

// Plain converts the record to a map of int64, string and []string
func (r Record) Plain() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		switch v.Kind {
		case KindInt:
			out[k] = v.Num
		case KindList:
			out[k] = append([]string(nil), v.List...)
		default:
			out[k] = v.Str
		}
	}
	return out
}

// FromPlain is the inverse of Plain. Dates come back as strings; callers
// holding a schema re-type them.
func FromPlain(m map[string]any) (Record, error) {
	out := make(Record, len(m))
	for k, raw := range m {
		v, err := fromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func fromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case int64:
		return Int(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return Int(int64(x)), nil
	case float64:
		if x != float64(int64(x)) {
			return Value{}, fmt.Errorf("non-integer number %v", x)
		}
		return Int(int64(x)), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("non-integer number %s", x)
		}
		return Int(n), nil
	case string:
		return String(x), nil
	case []string:
		return List(x...), nil
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return Value{}, fmt.Errorf("list item %v is not a string", item)
			}
			items = append(items, s)
		}
		return List(items...), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// MarshalJSON encodes the value as a plain JSON number, string or array
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return json.Marshal(v.Num)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	default:
		return json.Marshal(v.Str)
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := fromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
