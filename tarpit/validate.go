package tarpit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nonibytes/tarpit/tarpit/value"
)

// Input is raw field input keyed by field name. An empty slice means the
// field was named without a value and takes its default.
type Input map[string][]string

// checkInput coerces raw input into typed values. Unknown fields are
// dropped. When adding, required fields missing from the input get their
// default or fail.
func checkInput(schema Schema, opts Options, in Input, adding bool) (value.Record, error) {
	now := opts.Now()
	out := make(value.Record, len(in))

	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec, ok := schema.Get(name)
		if !ok {
			opts.Logger.Debug("ignoring unknown field", "field", name)
			continue
		}
		v, err := checkField(name, spec, in[name], opts, now)
		if err != nil {
			return nil, err
		}
		if schema.IsKey(name) && v.Text() == "" {
			return nil, ValidationError(name, "key field "+name+" cannot be empty")
		}
		out[name] = v
	}

	if adding {
		for _, name := range schema.Names() {
			spec := schema.Fields[name]
			if _, ok := out[name]; ok || !spec.Required {
				continue
			}
			v, err := checkField(name, spec, nil, opts, now)
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
	}
	return out, nil
}

func checkField(name string, spec FieldSpec, raw []string, opts Options, now time.Time) (value.Value, error) {
	if len(raw) == 0 {
		if spec.Default == "" {
			return value.Value{}, ValidationError(name, "need an explicit value for "+name)
		}
		raw = []string{spec.Default}
	}

	if spec.IsList() {
		items := make([]string, len(raw))
		for i, s := range raw {
			if err := checkLength(name, spec, s); err != nil {
				return value.Value{}, err
			}
			items[i] = s
		}
		return value.List(items...), nil
	}

	if len(raw) > 1 {
		return value.Value{}, ValidationError(name, name+" takes a single value")
	}
	s := raw[0]

	switch spec.Kind {
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return value.Value{}, ValidationError(name, fmt.Sprintf("%q is not an integer", s))
		}
		if spec.Min != nil && n < *spec.Min {
			return value.Value{}, ValidationError(name, fmt.Sprintf("'%d' is below the minimum for %s", n, name))
		}
		if spec.Max != nil && n > *spec.Max {
			return value.Value{}, ValidationError(name, fmt.Sprintf("'%d' is above the maximum for %s", n, name))
		}
		return value.Int(n), nil

	case KindString:
		if err := checkLength(name, spec, s); err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil

	case KindDate:
		d, err := opts.ParseDate(s, now)
		if err != nil {
			return value.Value{}, Wrap(ErrValidation, "invalid date for "+name, err)
		}
		return value.Date(d), nil

	case KindEnum:
		for _, member := range spec.Enum {
			if s == member {
				return value.String(s), nil
			}
		}
		return value.Value{}, ValidationError(name, fmt.Sprintf("unknown %s value '%s' (must be one of %s)", name, s, conjunctiveList(spec.Enum, "or")))

	default:
		return value.Value{}, SchemaError(fmt.Sprintf("field '%s' has unknown kind %s", name, spec.Kind))
	}
}

func checkLength(name string, spec FieldSpec, s string) error {
	n := int64(utf8.RuneCountInString(s))
	if spec.Min != nil && n < *spec.Min {
		if n == 0 {
			return ValidationError(name, name+" cannot be empty")
		}
		return ValidationError(name, fmt.Sprintf("'%s' is shorter than the minimum length for %s", s, name))
	}
	if spec.Max != nil && n > *spec.Max {
		return ValidationError(name, fmt.Sprintf("'%s' is longer than the maximum length for %s", s, name))
	}
	return nil
}

// retype converts loaded values to the kinds the schema declares. Storage
// codecs return dates as strings and may return numeric strings for ints.
func retype(schema Schema, rec value.Record) value.Record {
	for name, v := range rec {
		spec, ok := schema.Get(name)
		if !ok {
			continue
		}
		switch spec.Kind {
		case KindDate:
			if v.Kind == value.KindString {
				rec[name] = value.Date(v.Str)
			}
		case KindInt:
			if v.Kind == value.KindString {
				if n, err := strconv.ParseInt(v.Str, 10, 64); err == nil {
					rec[name] = value.Int(n)
				}
			}
		case KindStrList:
			if v.Kind != value.KindList {
				rec[name] = value.List(v.Text())
			}
		}
	}
	return rec
}
