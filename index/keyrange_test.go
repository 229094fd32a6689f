package index

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRange_Contains(t *testing.T) {
	cases := []struct {
		name     string
		r        *KeyRange
		key      Key
		expected bool
	}{
		{"all", All(), "anything", true},
		{"all nil", All(), nil, true},
		{"only hit", Only(5), 5, true},
		{"only miss", Only(5), 6, false},
		{"lower inclusive", LowerBound(5, false), 5, true},
		{"lower exclusive", LowerBound(5, true), 5, false},
		{"lower above", LowerBound(5, true), 5.5, true},
		{"upper inclusive", UpperBound("m", false), "m", true},
		{"upper exclusive", UpperBound("m", true), "m", false},
		{"upper below", UpperBound("m", true), "a", true},
		{"closed", NewKeyRange(1, 3, false, false), 3, true},
		{"half open", NewKeyRange(1, 3, false, true), 3, false},
		{"outside", NewKeyRange(1, 3, false, false), 0, false},
		{"mixed kinds", NewKeyRange(1, 3, false, false), "2", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, c.r.Contains(c.key))
		})
	}
}

func TestKeyRange_AllIsCached(t *testing.T) {
	assert.Same(t, All(), All())
	assert.True(t, All().IsAll())
	assert.False(t, Only(1).IsAll())
}

func TestKeyRange_IsOnly(t *testing.T) {
	assert.True(t, Only("x").IsOnly())
	assert.True(t, NewKeyRange(2, int64(2), false, false).IsOnly())
	assert.False(t, NewKeyRange(2, 2, true, false).IsOnly())
	assert.False(t, LowerBound(2, false).IsOnly())
	assert.True(t, Only(Tuple{"a", 1}).IsOnly())
	assert.False(t, Only(Tuple{"a", Unbound}).IsOnly())
}

func TestKeyRange_Complement(t *testing.T) {
	c := Only(5).Complement()
	require.Len(t, c, 2)

	for _, k := range []Key{4, 6, -100, 100} {
		assert.True(t, c[0].Contains(k) || c[1].Contains(k), "key %v", k)
	}
	assert.False(t, c[0].Contains(5) || c[1].Contains(5))

	assert.Empty(t, All().Complement())

	lower := LowerBound(3, true).Complement()
	require.Len(t, lower, 1)
	assert.True(t, lower[0].Contains(3))
	assert.False(t, lower[0].Contains(4))
}

func TestKeyRange_String(t *testing.T) {
	assert.Equal(t, "(1, 9]", NewKeyRange(1, 9, true, false).String())
	assert.Equal(t, "[<unbound>, <unbound>]", All().String())
}

func TestKeyRange_JSON(t *testing.T) {
	r := &KeyRange{}
	err := json.Unmarshal([]byte(`{"from": 10, "exclude_from": true}`), r)
	require.NoError(t, err)

	assert.Equal(t, float64(10), r.From)
	assert.True(t, isUnbound(r.To))
	assert.True(t, r.ExcludeFrom)
	assert.False(t, r.Contains(10))
	assert.True(t, r.Contains(11))

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from": 10, "exclude_from": true}`, string(b))

	null := &KeyRange{}
	require.NoError(t, json.Unmarshal([]byte(`{"from": null, "to": null}`), null))
	assert.True(t, null.IsOnly())
	assert.True(t, null.Contains(nil))

	composite := &KeyRange{}
	require.NoError(t, json.Unmarshal([]byte(`{"from": ["a", 1], "to": ["a", 1]}`), composite))
	assert.True(t, composite.Contains(Tuple{"a", 1}))
}

func TestCompareValues(t *testing.T) {
	now := time.Now()

	ordered := []Key{
		nil,
		false,
		true,
		-3,
		int64(2),
		2.5,
		"",
		"abc",
		"abd",
		now,
		now.Add(time.Second),
		Tuple{"a"},
		Tuple{"a", 1},
		Tuple{"a", 2},
		Tuple{"b"},
	}

	for i := range ordered {
		for j := range ordered {
			expected := cmpInt(i, j)
			assert.Equal(t, expected, CompareValues(ordered[i], ordered[j]), "%v vs %v", ordered[i], ordered[j])
		}
	}
}
