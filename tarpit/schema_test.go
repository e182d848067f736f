package tarpit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemaValid(t *testing.T) {
	s := DefaultSchema()
	require.NoError(t, s.Validate())

	assert.Equal(t, []string{"hd", "tar", "isd"}, s.KeyFields())
	assert.False(t, s.Sortable("status"))
	assert.True(t, s.Sortable("reported"))
	assert.True(t, s.IsList("comment"))

	cols := s.Columns()
	assert.Equal(t, []string{"hd", "tar", "isd"}, cols.Index)
	assert.Equal(t, []string{"comment"}, cols.List)
	assert.Contains(t, cols.Scalar, "status")
	assert.NotContains(t, cols.Scalar, "hd")
}

func TestSchemaValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
	}{
		{"no fields", Schema{Keys: []string{"id"}}},
		{"no keys", Schema{Fields: map[string]FieldSpec{"id": {Kind: KindInt}}}},
		{"undefined key", Schema{Keys: []string{"id"}, Fields: map[string]FieldSpec{"x": {Kind: KindInt}}}},
		{"list key", Schema{Keys: []string{"id"}, Fields: map[string]FieldSpec{"id": {Kind: KindStrList}}}},
		{"bad kind", Schema{Keys: []string{"id"}, Fields: map[string]FieldSpec{"id": {Kind: "float"}}}},
		{"empty enum", Schema{Keys: []string{"id"}, Fields: map[string]FieldSpec{"id": {Kind: KindInt}, "s": {Kind: KindEnum}}}},
		{"sortable enum", Schema{Keys: []string{"id"}, Fields: map[string]FieldSpec{"id": {Kind: KindInt}, "s": {Kind: KindEnum, Enum: []string{"a"}, Sortable: boolPtr(true)}}}},
		{"bad name", Schema{Keys: []string{"id"}, Fields: map[string]FieldSpec{"id": {Kind: KindInt}, "Bad-Name": {Kind: KindString}}}},
		{"repeated key", Schema{Keys: []string{"id", "id"}, Fields: map[string]FieldSpec{"id": {Kind: KindInt}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			require.Error(t, err)
			assert.True(t, IsKind(err, ErrSchema), "got %v", err)
		})
	}
}

func TestSchemaFromYAML(t *testing.T) {
	src := `
keys: [ticket]
fields:
  ticket:
    kind: int
    min: 1
  title:
    kind: string
    required: true
    default: untitled
  state:
    kind: enum
    enum: [open, closed]
`
	s, err := SchemaFromYAML([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"ticket"}, s.Keys)
	assert.Equal(t, int64(1), *s.Fields["ticket"].Min)
	assert.True(t, s.Fields["title"].Required)
	assert.Equal(t, []string{"open", "closed"}, s.Fields["state"].Enum)

	_, err = SchemaFromYAML([]byte("keys: [a]\nfields: {a: {kind: list}}"))
	assert.True(t, IsKind(err, ErrSchema))
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	b, err := DefaultSchema().ToJSON()
	require.NoError(t, err)
	s, err := SchemaFromJSON(b)
	require.NoError(t, err)
	assert.Equal(t, DefaultSchema(), s)
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		input string
		want  string
	}{
		{"now", "2024-03-01"},
		{"Today", "2024-03-01"},
		{"yesterday", "2024-02-29"},
		{"tomorrow", "2024-03-02"},
		{"2023-12-31", "2023-12-31"},
		{"2023-12-31 23:59:59", "2023-12-31"},
		{"2023/07/04", "2023-07-04"},
		{"2023-07-04T10:00:00Z", "2023-07-04"},
		{"4 Jul 2023", "2023-07-04"},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.input, now)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := ParseDate("2023-13-01", now)
	assert.Error(t, err)
}

func TestParseRef(t *testing.T) {
	keys := DefaultSchema().Keys
	tests := []struct {
		input string
		want  Ref
	}{
		{"hd-1234", Ref{{Field: "hd", Value: "1234"}}},
		{"HD 1234", Ref{{Field: "hd", Value: "1234"}}},
		{"isd7", Ref{{Field: "isd", Value: "7"}}},
		{"tar - 9", Ref{{Field: "tar", Value: "9"}}},
		{"hd-1,isd-2", Ref{{Field: "hd", Value: "1"}, {Field: "isd", Value: "2"}}},
	}
	for _, tt := range tests {
		got, err := ParseRef(tt.input, keys)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	for _, bad := range []string{"", "xyz-1", "hd-", "hd-1x", "desc-1"} {
		_, err := ParseRef(bad, keys)
		assert.True(t, IsKind(err, ErrValidation), bad)
	}
}

func TestRefDescribe(t *testing.T) {
	ref := Ref{{Field: "hd", Value: "1"}, {Field: "tar", Value: "2"}, {Field: "isd", Value: "3"}}
	assert.Equal(t, "hd-1, tar-2 or isd-3", ref.Describe("or"))
	assert.Equal(t, "hd-1 and tar-2", ref[:2].Describe("and"))
	assert.Equal(t, "hd-1,tar-2,isd-3", ref.String())
}
