package docstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	t.Parallel()

	p := Comments("P1T0").Doc("17-u1")

	assert.Equal(t, Path("entries/P1T0/comments/17-u1"), p)
	assert.Equal(t, "17-u1", p.ID())
	assert.Equal(t, CollectionPath("entries/P1T0/comments"), p.Collection())
	assert.Equal(t, "entries/P1T0", EntryRef("P1T0"))
}

func TestPath_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path Path
		want bool
	}{
		{"entries/P1T0", true},
		{"entries/P1T0/comments/c1", true},
		{"entries", false},
		{"entries/P1T0/comments", false},
		{"entries//x/y", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.path.Valid(), string(tt.path))
	}
}

func TestEncode_RejectsNonObjects(t *testing.T) {
	t.Parallel()

	_, err := Encode([]string{"a"})
	assert.Error(t, err)

	data, err := Encode(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(data))
}

// ---------------------------------------------------------------------------
// Apply
// ---------------------------------------------------------------------------

func TestApply_MergesPlainFields(t *testing.T) {
	t.Parallel()

	out, err := Apply(json.RawMessage(`{"a":1,"b":"x"}`), Fields{"b": "y", "c": true})

	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":"y","c":true}`, string(out))
}

func TestApply_ArrayUnionIsIdempotent(t *testing.T) {
	t.Parallel()

	body := json.RawMessage(`{"likes":["u1"]}`)

	once, err := Apply(body, Fields{"likes": ArrayUnion("u2", "u1")})
	require.NoError(t, err)
	twice, err := Apply(once, Fields{"likes": ArrayUnion("u2")})
	require.NoError(t, err)

	assert.JSONEq(t, `{"likes":["u1","u2"]}`, string(twice))
}

func TestApply_ArrayRemove(t *testing.T) {
	t.Parallel()

	out, err := Apply(json.RawMessage(`{"entries":["entries/a","entries/b","entries/a"]}`),
		Fields{"entries": ArrayRemove("entries/a", "entries/missing")})

	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":["entries/b"]}`, string(out))
}

func TestApply_TransformOnMissingOrNullField(t *testing.T) {
	t.Parallel()

	out, err := Apply(json.RawMessage(`{"entries":null}`), Fields{
		"entries": ArrayUnion("entries/a"),
		"likes":   ArrayRemove("u1"),
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":["entries/a"],"likes":[]}`, string(out))
}

func TestApply_TransformOnNonArrayFails(t *testing.T) {
	t.Parallel()

	_, err := Apply(json.RawMessage(`{"likes":"u1"}`), Fields{"likes": ArrayUnion("u2")})

	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Matches
// ---------------------------------------------------------------------------

func TestMatches(t *testing.T) {
	t.Parallel()

	body := json.RawMessage(`{"entryId":"P1T0","count":3}`)

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"equal", Where("entryId", "P1T0"), true},
		{"different", Where("entryId", "P1T1"), false},
		{"missing matches empty", Where("userId", ""), true},
		{"missing against value", Where("userId", "u1"), false},
		{"non-string never matches", Where("count", "3"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Matches(body, tt.filter))
		})
	}
}
