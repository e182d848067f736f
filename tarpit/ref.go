package tarpit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nonibytes/tarpit/tarpit/value"
)

// KeyValue names a record by one key field
type KeyValue struct {
	Field string
	Value string
}

func (kv KeyValue) String() string {
	return kv.Field + "-" + kv.Value
}

// Ref identifies a record by one or more key field values
type Ref []KeyValue

var refPartRe = regexp.MustCompile(`^([a-z][a-z0-9_]*?)\s*(?:-\s*)?(\d+)$`)

// ParseRef parses free-form references such as "hd-1234", "HD 1234",
// "hd1234" or "hd-1,isd-2". Only the given key fields are recognized.
func ParseRef(s string, keys []string) (Ref, error) {
	var ref Ref
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		m := refPartRe.FindStringSubmatch(part)
		if m == nil || !containsString(keys, m[1]) {
			return nil, ValidationError("", fmt.Sprintf("cannot recognize %q as a lookup key", strings.TrimSpace(s)))
		}
		ref = append(ref, KeyValue{Field: m[1], Value: m[2]})
	}
	return ref, nil
}

// RefOf returns the non-empty key field values a record carries, in key
// order
func RefOf(rec value.Record, keys []string) Ref {
	var ref Ref
	for _, k := range keys {
		if v, ok := rec[k]; ok && v.Text() != "" {
			ref = append(ref, KeyValue{Field: k, Value: v.Text()})
		}
	}
	return ref
}

// Get returns the value given for field
func (r Ref) Get(field string) (string, bool) {
	for _, kv := range r {
		if kv.Field == field {
			return kv.Value, true
		}
	}
	return "", false
}

// Describe joins the parts as "hd-1, tar-2 or isd-3"
func (r Ref) Describe(conj string) string {
	parts := make([]string, len(r))
	for i, kv := range r {
		parts[i] = kv.String()
	}
	return conjunctiveList(parts, conj)
}

func (r Ref) String() string {
	parts := make([]string, len(r))
	for i, kv := range r {
		parts[i] = kv.String()
	}
	return strings.Join(parts, ",")
}

func conjunctiveList(items []string, conj string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + conj + " " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " " + conj + " " + items[len(items)-1]
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
