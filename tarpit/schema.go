package tarpit

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// FieldKind specifies the type of a field
type FieldKind string

const (
	KindInt     FieldKind = "int"
	KindString  FieldKind = "string"
	KindDate    FieldKind = "date"
	KindEnum    FieldKind = "enum"
	KindStrList FieldKind = "strlist"
)

// FieldSpec defines a field's configuration. Min and Max bound integer
// values, or string length for string and strlist fields.
type FieldSpec struct {
	Kind     FieldKind `json:"kind" yaml:"kind"`
	Min      *int64    `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *int64    `json:"max,omitempty" yaml:"max,omitempty"`
	Default  string    `json:"default,omitempty" yaml:"default,omitempty"`
	Enum     []string  `json:"enum,omitempty" yaml:"enum,omitempty"`
	Sortable *bool     `json:"sortable,omitempty" yaml:"sortable,omitempty"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Desc     string    `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// IsList reports whether the field holds a list of values
func (f FieldSpec) IsList() bool {
	return f.Kind == KindStrList
}

// Schema is the field table of a store. Keys lists the key fields in lookup
// priority order.
type Schema struct {
	Fields map[string]FieldSpec `json:"fields" yaml:"fields"`
	Keys   []string             `json:"keys" yaml:"keys"`
}

var validFieldNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks if the schema is valid
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return SchemaError("schema must have at least one field")
	}
	if len(s.Keys) == 0 {
		return SchemaError("schema must declare at least one key field")
	}

	for name, spec := range s.Fields {
		if !validFieldNameRe.MatchString(name) {
			return SchemaError(fmt.Sprintf("invalid field name: %s (must match %s)", name, validFieldNameRe.String()))
		}

		switch spec.Kind {
		case KindInt, KindString, KindDate, KindStrList:
			if len(spec.Enum) > 0 {
				return SchemaError(fmt.Sprintf("field '%s': enum members are only allowed on enum fields", name))
			}
		case KindEnum:
			if len(spec.Enum) == 0 {
				return SchemaError(fmt.Sprintf("field '%s': enum field needs at least one member", name))
			}
			if spec.Sortable != nil && *spec.Sortable {
				return SchemaError(fmt.Sprintf("field '%s': enum fields cannot be sortable", name))
			}
		default:
			return SchemaError(fmt.Sprintf("unknown field kind '%s' for field '%s'", spec.Kind, name))
		}

		if spec.Min != nil && spec.Max != nil && *spec.Min > *spec.Max {
			return SchemaError(fmt.Sprintf("field '%s': min is greater than max", name))
		}
	}

	seen := make(map[string]bool, len(s.Keys))
	for _, key := range s.Keys {
		spec, ok := s.Fields[key]
		if !ok {
			return SchemaError(fmt.Sprintf("key field '%s' is not defined", key))
		}
		if spec.Kind != KindInt && spec.Kind != KindString {
			return SchemaError(fmt.Sprintf("key field '%s' must be int or string, not %s", key, spec.Kind))
		}
		if seen[key] {
			return SchemaError(fmt.Sprintf("key field '%s' listed twice", key))
		}
		seen[key] = true
	}

	return nil
}

// ToJSON serializes the schema to JSON
func (s Schema) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// SchemaFromJSON deserializes a schema from JSON
func SchemaFromJSON(b []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return Schema{}, Wrap(ErrSchema, "invalid schema JSON", err)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// SchemaFromYAML deserializes a schema from YAML
func SchemaFromYAML(b []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Schema{}, Wrap(ErrSchema, "invalid schema YAML", err)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// Get retrieves a field spec by name
func (s Schema) Get(name string) (FieldSpec, bool) {
	spec, ok := s.Fields[name]
	return spec, ok
}

// HasField checks if a field exists in the schema
func (s Schema) HasField(name string) bool {
	_, ok := s.Fields[name]
	return ok
}

// Sortable reports whether ordering comparisons are allowed on the field.
// Enum fields never are; other fields are unless marked otherwise.
func (s Schema) Sortable(name string) bool {
	spec, ok := s.Fields[name]
	if !ok {
		return false
	}
	if spec.Kind == KindEnum {
		return false
	}
	return spec.Sortable == nil || *spec.Sortable
}

// KeyFields returns the key fields in lookup priority order
func (s Schema) KeyFields() []string {
	return append([]string(nil), s.Keys...)
}

// IsKey reports whether name is a key field
func (s Schema) IsKey(name string) bool {
	for _, k := range s.Keys {
		if k == name {
			return true
		}
	}
	return false
}

// IsList reports whether the field holds a list of values
func (s Schema) IsList(name string) bool {
	spec, ok := s.Fields[name]
	return ok && spec.IsList()
}

// Columns groups field names the way they are listed to users
type Columns struct {
	Index  []string `json:"index" yaml:"index"`
	Scalar []string `json:"scalar" yaml:"scalar"`
	List   []string `json:"list" yaml:"list"`
}

// Columns returns key fields in priority order, then the remaining scalar
// and list fields sorted by name.
func (s Schema) Columns() Columns {
	c := Columns{Index: s.KeyFields()}
	for _, name := range s.Names() {
		switch {
		case s.IsKey(name):
		case s.Fields[name].IsList():
			c.List = append(c.List, name)
		default:
			c.Scalar = append(c.Scalar, name)
		}
	}
	return c
}

// Names returns all field names sorted
func (s Schema) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func int64Ptr(n int64) *int64 { return &n }

func boolPtr(b bool) *bool { return &b }

// StatusCodes are the members of the default schema's status field
var StatusCodes = []string{"new", "active", "waiting", "blocked", "reassigned", "ready", "deployed", "disregarded"}

// DefaultSchema returns the ticket schema: three alias numbers as keys plus
// descriptive, date, status and comment fields.
func DefaultSchema() Schema {
	return Schema{
		Keys: []string{"hd", "tar", "isd"},
		Fields: map[string]FieldSpec{
			"hd":       {Kind: KindInt, Min: int64Ptr(1), Desc: "HD-number of issue"},
			"tar":      {Kind: KindInt, Min: int64Ptr(1), Desc: "TAR-number of issue"},
			"isd":      {Kind: KindInt, Min: int64Ptr(1), Desc: "ISD-number of issue"},
			"desc":     {Kind: KindString, Min: int64Ptr(1), Desc: "Issue description"},
			"url":      {Kind: KindString, Min: int64Ptr(1), Desc: "URL of the ticket (generally the HD ticket)"},
			"branch":   {Kind: KindString, Min: int64Ptr(1), Desc: "Git branch in which fix was deployed"},
			"reported": {Kind: KindDate, Default: "now", Desc: "Date when item was reported"},
			"reporter": {Kind: KindString, Min: int64Ptr(1), Desc: "Name of the one who made the report"},
			"assigned": {Kind: KindDate, Default: "now", Desc: "Date the item was assigned"},
			"assignee": {Kind: KindString, Min: int64Ptr(1), Desc: "Name of the one to whom the ticket is assigned"},
			"status":   {Kind: KindEnum, Enum: append([]string(nil), StatusCodes...), Default: "new", Sortable: boolPtr(false), Desc: "Ticket status"},
			"resolved": {Kind: KindDate, Default: "now", Desc: "Date when item was resolved"},
			"comment":  {Kind: KindStrList, Min: int64Ptr(1), Desc: "Comment (may occur multiple times per ticket)"},
		},
	}
}
