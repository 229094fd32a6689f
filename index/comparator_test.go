package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleComparator(t *testing.T) {
	asc := NewSimpleComparator(Asc)
	desc := NewSimpleComparator(Desc)

	assert.Equal(t, FavorRHS, asc.Compare(1, 2))
	assert.Equal(t, FavorLHS, desc.Compare(1, 2))
	assert.Equal(t, FavorTie, desc.Compare(2, 2.0))

	for _, c := range []Comparator{asc, desc} {
		assert.Equal(t, FavorLHS, c.Min(1, 2))
		assert.Equal(t, FavorRHS, c.Min(2, 1))
		assert.Equal(t, FavorTie, c.Min(2, 2))
		assert.Equal(t, FavorRHS, c.Max(1, 2))
		assert.Equal(t, FavorLHS, c.Max(2, 1))
		assert.Equal(t, FavorTie, c.Max("x", "x"))
		assert.True(t, c.IsInRange(3, NewKeyRange(1, 5, false, false)))
	}

	assert.Equal(t, []Order{Desc}, desc.Orders())
}

func TestComparator_Antisymmetric(t *testing.T) {
	keys := []Key{nil, true, 1, 2, "a", "b", Tuple{1, "a"}, Tuple{1, "b"}}
	comparators := []Comparator{
		NewComparator(),
		NewComparator(Desc),
		NewComparator(Asc, Desc),
		NewComparator(Desc, Asc),
	}

	for _, c := range comparators {
		for _, a := range keys {
			for _, b := range keys {
				assert.Equal(t, -c.Compare(a, b), c.Compare(b, a), "%v %v", a, b)
				assert.Equal(t, -c.Min(a, b), c.Min(b, a), "%v %v", a, b)
				assert.Equal(t, -c.Max(a, b), c.Max(b, a), "%v %v", a, b)
			}
		}
	}
}

func TestMultiKeyComparator(t *testing.T) {
	c := NewComparator(Asc, Desc)
	_, ok := c.(*MultiKeyComparator)
	assert.True(t, ok)

	assert.Equal(t, FavorRHS, c.Compare(Tuple{"a", 1}, Tuple{"b", 0}))
	assert.Equal(t, FavorLHS, c.Compare(Tuple{"a", 1}, Tuple{"a", 2}))
	assert.Equal(t, FavorTie, c.Compare(Tuple{"a", 1}, []any{"a", int64(1)}))

	// min and max honour each component's direction
	assert.Equal(t, FavorRHS, c.Min(Tuple{"a", 1}, Tuple{"a", 2}))
	assert.Equal(t, FavorLHS, c.Max(Tuple{"a", 1}, Tuple{"a", 2}))
	assert.Equal(t, FavorLHS, c.Min(Tuple{"a", 1}, Tuple{"b", 2}))
	assert.Equal(t, FavorRHS, c.Max(Tuple{"a", 1}, Tuple{"b", 2}))
	assert.Equal(t, FavorTie, c.Min(Tuple{"a", 1}, []any{"a", int64(1)}))

	assert.Equal(t, []Order{Asc, Desc}, c.Orders())
}

func TestOrderCompatible(t *testing.T) {
	cases := []struct {
		have, want  []Order
		ok, reverse bool
	}{
		{[]Order{Asc}, []Order{Asc}, true, false},
		{[]Order{Asc}, []Order{Desc}, true, true},
		{[]Order{Asc, Desc}, []Order{Asc, Desc}, true, false},
		{[]Order{Asc, Desc}, []Order{Desc, Asc}, true, true},
		{[]Order{Asc, Desc}, []Order{Asc, Asc}, false, false},
		{[]Order{Asc, Desc}, []Order{Desc}, true, true},
		{[]Order{Asc}, []Order{Asc, Asc}, false, false},
		{[]Order{Asc}, nil, false, false},
	}

	for _, c := range cases {
		ok, reverse := OrderCompatible(c.have, c.want)
		assert.Equal(t, c.ok, ok, "%v %v", c.have, c.want)
		assert.Equal(t, c.reverse, reverse, "%v %v", c.have, c.want)
	}
}
