package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/tarpit/tarpit/value"
)

func evalString(t *testing.T, input string, rec value.Record) bool {
	t.Helper()
	expr, err := NewParser(newTestSchema()).Parse(input)
	require.NoError(t, err, "parse %q", input)
	return Eval(expr, rec)
}

func TestEvalCompare(t *testing.T) {
	rec := value.Record{"a": value.Int(3), "desc": value.String("hello")}

	assert.True(t, evalString(t, "a = 3", rec))
	assert.True(t, evalString(t, "3 = a", rec))
	assert.False(t, evalString(t, "a != 3", rec))
	assert.True(t, evalString(t, "a < 10", rec), "integers compare numerically")
	assert.True(t, evalString(t, "desc = 'hello'", rec))
	assert.True(t, evalString(t, "desc > 'goodbye'", rec))
	assert.False(t, evalString(t, "b = 3", rec), "missing field never compares")
	assert.False(t, evalString(t, "b != 3", rec), "missing field never compares")
}

func TestEvalMixedKinds(t *testing.T) {
	rec := value.Record{"a": value.Int(10)}
	// an integer field against a string literal compares lexically
	assert.True(t, evalString(t, "a = '10'", rec))
	assert.True(t, evalString(t, "a < '9'", rec))
}

func TestEvalRange(t *testing.T) {
	tests := []struct {
		input string
		a     int64
		want  bool
	}{
		{"0 < a < 4", 0, false},
		{"0 < a < 4", 1, true},
		{"0 < a < 4", 3, true},
		{"0 < a < 4", 4, false},
		{"0 <= a <= 4", 0, true},
		{"0 <= a <= 4", 4, true},
		{"0 <= a <= 4", 5, false},
		{"4 > a >= 0", 0, true},
		{"4 > a >= 0", 4, false},
	}
	for _, tt := range tests {
		got := evalString(t, tt.input, value.Record{"a": value.Int(tt.a)})
		assert.Equal(t, tt.want, got, "%s with a=%d", tt.input, tt.a)
	}
}

func TestEvalNull(t *testing.T) {
	empty := value.Record{}
	set := value.Record{"a": value.Int(1)}

	assert.True(t, evalString(t, "a is null", empty))
	assert.False(t, evalString(t, "a is null", set))
	assert.True(t, evalString(t, "a is not null", set))
}

func TestEvalInWithNull(t *testing.T) {
	query := "a not in (first,null)"
	assert.False(t, evalString(t, query, value.Record{}))
	assert.False(t, evalString(t, query, value.Record{"a": value.String("first")}))
	assert.True(t, evalString(t, query, value.Record{"a": value.String("second")}))

	query = "a in (first, 2, null)"
	assert.True(t, evalString(t, query, value.Record{}))
	assert.True(t, evalString(t, query, value.Record{"a": value.String("first")}))
	assert.True(t, evalString(t, query, value.Record{"a": value.Int(2)}))
	assert.False(t, evalString(t, query, value.Record{"a": value.Int(3)}))
}

func TestEvalLike(t *testing.T) {
	assert.True(t, evalString(t, "desc like 'abc%def'", value.Record{"desc": value.String("abcXYZdef")}))
	assert.True(t, evalString(t, "desc like 'abc%def'", value.Record{"desc": value.String("abcdef")}))
	assert.False(t, evalString(t, "desc like 'abc%def'", value.Record{"desc": value.String("abcdefX")}))
	assert.True(t, evalString(t, "desc not like 'abc%def'", value.Record{"desc": value.String("abcdefX")}))
	assert.False(t, evalString(t, "desc like '%'", value.Record{}), "missing field never matches")
}

func TestEvalListField(t *testing.T) {
	rec := value.Record{"comment": value.List("first note", "second")}

	assert.True(t, evalString(t, "comment = 'second'", rec))
	assert.False(t, evalString(t, "comment = 'third'", rec))
	assert.True(t, evalString(t, "comment in ('x', 'first note')", rec))
	assert.True(t, evalString(t, "comment like 'first%second'", rec), "like sees the concatenated items")
	assert.True(t, evalString(t, "'a' < comment < 'g'", rec))
}

func TestEvalBoolean(t *testing.T) {
	rec := value.Record{"a": value.Int(3), "b": value.Int(0), "c": value.Int(5)}

	assert.True(t, evalString(t, "a = 3 or b = 4 and c = 5", rec))
	assert.False(t, evalString(t, "(a = 3 or b = 4) and c = 6", rec))
	assert.True(t, evalString(t, "!(a = 4) and not (b = 1)", rec))
	assert.True(t, evalString(t, "hd-1 or a = 3", rec))
}

func TestKeyEquality(t *testing.T) {
	keys := []string{"hd", "tar", "isd"}

	field, v, ok := KeyEquality(mustParse(t, "hd-12"), keys)
	require.True(t, ok)
	assert.Equal(t, "hd", field)
	assert.Equal(t, value.Int(12), v)

	_, _, ok = KeyEquality(mustParse(t, "a = 12"), keys)
	assert.False(t, ok)

	_, _, ok = KeyEquality(mustParse(t, "tar < 12"), keys)
	assert.False(t, ok)

	_, _, ok = KeyEquality(mustParse(t, "hd = 1 or tar = 2"), keys)
	assert.False(t, ok)
}
