package index

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScenarioIndex() *MapIndex {
	m := NewMapIndex("scenario", nil)
	m.Add("a", 1)
	m.Add("b", 2)
	m.Add("b", 3)
	m.Add("c", 4)
	return m
}

func TestMapIndex_Scenario(t *testing.T) {
	m := newScenarioIndex()

	assert.Equal(t, []RowID{1, 2, 3, 4}, m.GetRange(nil, false, Unlimited, 0))
	assert.Equal(t, []RowID{4, 3, 2, 1}, m.GetRange(nil, true, Unlimited, 0))
	assert.Equal(t, []RowID{1, 2}, m.GetRange(nil, false, 2, 0))

	m.Remove("b", 2)
	assert.Equal(t, []RowID{3}, m.Get("b"))

	m.Remove("b")
	assert.False(t, m.ContainsKey("b"))
	assert.Equal(t, []RowID{}, m.Get("b"))
}

func TestMapIndex_AddIsIdempotent(t *testing.T) {
	m := NewMapIndex("idx", nil)
	m.Add("k", 1)
	m.Add("k", 1)

	assert.Equal(t, []RowID{1}, m.Get("k"))
	assert.Equal(t, Stats{Keys: 1, Rows: 1}, m.Stats())
}

func TestMapIndex_AddOrderDoesNotMatter(t *testing.T) {
	a := NewMapIndex("a", nil)
	a.Add("k", 1)
	a.Add("k", 2)

	b := NewMapIndex("b", nil)
	b.Add("k", 2)
	b.Add("k", 1)

	assert.ElementsMatch(t, []RowID{1, 2}, a.Get("k"))
	assert.Equal(t, a.Get("k"), b.Get("k"))
}

func TestMapIndex_SetReplaces(t *testing.T) {
	m := NewMapIndex("idx", nil)
	m.Add("k", 1)
	m.Add("k", 2)
	m.Add("k", 3)

	m.Set("k", 9)

	assert.Equal(t, []RowID{9}, m.Get("k"))
	assert.Equal(t, Stats{Keys: 1, Rows: 1}, m.Stats())

	m.Set("new", 5)
	assert.Equal(t, []RowID{5}, m.Get("new"))
	assert.Equal(t, Stats{Keys: 2, Rows: 2}, m.Stats())
}

func TestMapIndex_PruneInvariant(t *testing.T) {
	m := NewMapIndex("idx", nil)

	steps := []struct {
		add    bool
		key    string
		row    RowID
		exists bool
	}{
		{true, "x", 1, true},
		{true, "x", 2, true},
		{false, "x", 1, true},
		{false, "x", 7, true}, // unknown row id
		{false, "x", 2, false},
		{false, "x", 2, false}, // unknown key
		{true, "y", 3, true},
	}

	for i, s := range steps {
		if s.add {
			m.Add(s.key, s.row)
		} else {
			m.Remove(s.key, s.row)
		}
		assert.Equal(t, s.exists, m.ContainsKey(s.key), "step %d", i)
		assert.Equal(t, s.exists, len(m.Get(s.key)) > 0, "step %d", i)
	}

	for _, e := range m.entries {
		assert.NotEmpty(t, e.rows)
	}
	assert.Equal(t, Stats{Keys: 1, Rows: 1}, m.Stats())
}

func TestMapIndex_RemoveSeveralRowIDs(t *testing.T) {
	m := NewMapIndex("idx", nil)
	m.Add(1, 10)
	m.Add(1, 11)
	m.Add(1, 12)

	m.Remove(1, 10, 12)
	assert.Equal(t, []RowID{11}, m.Get(1))

	m.Remove(1, 11, 99)
	assert.False(t, m.ContainsKey(1))
	assert.Equal(t, Stats{}, m.Stats())
}

func TestMapIndex_RangeUnion(t *testing.T) {
	m := NewMapIndex("idx", nil)
	for i := 1; i <= 6; i++ {
		m.Add(i*10, RowID(i))
	}

	r1 := NewKeyRange(10, 20, false, false)
	r2 := NewKeyRange(50, 60, false, false)

	assert.Equal(t, []RowID{1, 2, 5, 6}, m.GetRange([]*KeyRange{r2, r1}, false, Unlimited, 0))
}

func TestMapIndex_RangeUnionOverlapping(t *testing.T) {
	m := newScenarioIndex()

	ranges := []*KeyRange{
		LowerBound("b", false),
		Only("b"),
		All(),
	}

	assert.Equal(t, []RowID{1, 2, 3, 4}, m.GetRange(ranges, false, Unlimited, 0))
}

func TestMapIndex_InList(t *testing.T) {
	m := NewMapIndex("idx", nil)
	m.Add("red", 1)
	m.Add("green", 2)
	m.Add("blue", 3)
	m.Add("red", 4)

	ranges := []*KeyRange{Only("red"), Only("blue"), Only("purple")}

	assert.Equal(t, []RowID{3, 1, 4}, m.GetRange(ranges, false, Unlimited, 0))
}

func TestMapIndex_SlicingOrder(t *testing.T) {
	m := NewMapIndex("idx", nil)
	for i := 1; i <= 5; i++ {
		m.Add(i, RowID(i))
	}

	got := m.GetRange(nil, true, 2, 1)
	assert.Equal(t, []RowID{4, 3}, got)

	// skip and limit before reversing would pick other rows
	wrong := Slice(Slice(m.GetRange(nil, false, Unlimited, 0), false, 2, 1), true, Unlimited, 0)
	assert.Equal(t, []RowID{3, 2}, wrong)
	assert.NotEqual(t, wrong, got)
}

func TestMapIndex_EmptyResults(t *testing.T) {
	m := newScenarioIndex()

	assert.Equal(t, []RowID{}, m.GetRange([]*KeyRange{Only("zzz")}, false, Unlimited, 0))
	assert.Equal(t, []RowID{}, m.GetRange(nil, false, Unlimited, 10))
	assert.Equal(t, []RowID{}, NewMapIndex("empty", nil).GetRange(nil, false, Unlimited, 0))
}

func TestMapIndex_MinMax(t *testing.T) {
	m := NewMapIndex("idx", nil)

	key, rows := m.Min()
	assert.Nil(t, key)
	assert.Nil(t, rows)
	key, rows = m.Max()
	assert.Nil(t, key)
	assert.Nil(t, rows)

	m.Add(5, 50)
	m.Add(1, 10)
	m.Add(1, 11)
	m.Add(9, 90)

	key, rows = m.Min()
	assert.Equal(t, float64(1), key)
	assert.Equal(t, []RowID{10, 11}, rows)

	key, rows = m.Max()
	assert.Equal(t, float64(9), key)
	assert.Equal(t, []RowID{90}, rows)
}

func TestMapIndex_MinMaxIgnoresDirection(t *testing.T) {
	m := NewMapIndex("idx", NewSimpleComparator(Desc))
	m.Add("a", 1)
	m.Add("z", 2)

	key, _ := m.Min()
	assert.Equal(t, "a", key)
	key, _ = m.Max()
	assert.Equal(t, "z", key)

	assert.Equal(t, []RowID{2, 1}, m.GetRange(nil, false, Unlimited, 0))
}

func TestMapIndex_CostMatchesGetRange(t *testing.T) {
	m := NewMapIndex("idx", nil)
	for i := 0; i < 20; i++ {
		m.Add(i%7, RowID(i))
	}

	ranges := []*KeyRange{
		nil,
		All(),
		Only(3),
		Only(100),
		LowerBound(2, true),
		UpperBound(4, false),
		NewKeyRange(1, 5, true, true),
	}
	for _, r := range ranges {
		expected := len(m.GetRange(nil, false, Unlimited, 0))
		if r != nil {
			expected = len(m.GetRange([]*KeyRange{r}, false, Unlimited, 0))
		}
		assert.Equal(t, expected, m.Cost(r), "range %v", r)
	}
	assert.Equal(t, 20, m.Cost(nil))
	assert.Equal(t, 3, m.Cost(Only(3)))
}

func TestMapIndex_Serialize(t *testing.T) {
	m := newScenarioIndex()

	entries, err := m.Serialize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotSupported))
	assert.Nil(t, entries)

	// failure has no side effects
	assert.Equal(t, []RowID{1, 2, 3, 4}, m.GetRange(nil, false, Unlimited, 0))
}

func TestMapIndex_Clear(t *testing.T) {
	m := newScenarioIndex()
	m.Clear()

	assert.False(t, m.ContainsKey("a"))
	assert.Equal(t, []RowID{}, m.GetRange(nil, false, Unlimited, 0))
	assert.Equal(t, Stats{}, m.Stats())
	assert.Equal(t, "scenario", m.Name())
}

func TestMapIndex_NumericKeysAreNormalized(t *testing.T) {
	m := NewMapIndex("idx", nil)
	m.Add(1, 1)
	m.Add(int64(1), 2)
	m.Add(1.0, 3)
	m.Add("1", 4)

	assert.Equal(t, []RowID{1, 2, 3}, m.Get(1))
	assert.Equal(t, []RowID{4}, m.Get("1"))
	assert.Equal(t, 2, m.Stats().Keys)
}

func TestMapIndex_CompositeKeys(t *testing.T) {
	m := NewMapIndex("name_age", NewComparator(Asc, Desc))
	m.Add(Tuple{"ana", 30}, 1)
	m.Add(Tuple{"ana", 40}, 2)
	m.Add(Tuple{"bob", 20}, 3)
	m.Add([]any{"ana", 30}, 4)

	assert.Equal(t, []RowID{1, 4}, m.Get(Tuple{"ana", 30}))
	assert.Equal(t, []RowID{2, 1, 4, 3}, m.GetRange(nil, false, Unlimited, 0))

	// name = 'ana' AND age > 30
	r := NewKeyRange(Tuple{"ana", 30}, Tuple{"ana", Unbound}, true, false)
	assert.Equal(t, []RowID{2}, m.GetRange([]*KeyRange{r}, false, Unlimited, 0))

	// name = 'ana'
	prefix := NewKeyRange(Tuple{"ana", Unbound}, Tuple{"ana", Unbound}, false, false)
	assert.Equal(t, []RowID{2, 1, 4}, m.GetRange([]*KeyRange{prefix}, false, Unlimited, 0))

	key, rows := m.Max()
	assert.Equal(t, Tuple{"bob", float64(20)}, key)
	assert.Equal(t, []RowID{3}, rows)
}

func TestMapIndex_CompositeTimeKeys(t *testing.T) {
	m := NewMapIndex("name_at", NewComparator(Asc, Asc))
	m.Add(Tuple{"a", time.Unix(10, 0)}, 1)
	m.Add(Tuple{"a", time.Unix(20, 0)}, 2)
	m.Add(Tuple{"b", time.Unix(10, 0)}, 3)
	m.Add(Tuple{"a", time.Unix(10, 0).In(time.FixedZone("x", 3600))}, 4)

	assert.Equal(t, 3, m.Stats().Keys)
	assert.Equal(t, []RowID{1, 4}, m.Get(Tuple{"a", time.Unix(10, 0)}))

	r := NewKeyRange(Tuple{"a", time.Unix(15, 0)}, Tuple{"a", Unbound}, false, false)
	assert.Equal(t, []RowID{2}, m.GetRange([]*KeyRange{r}, false, Unlimited, 0))

	m.Remove(Tuple{"a", time.Unix(20, 0)}, 2)
	assert.False(t, m.ContainsKey(Tuple{"a", time.Unix(20, 0)}))
	assert.Equal(t, []RowID{1, 4, 3}, m.GetRange(nil, false, Unlimited, 0))
}

func TestMapIndex_NegativeZero(t *testing.T) {
	m := NewMapIndex("idx", NewComparator(Asc, Asc))
	m.Add(Tuple{"a", 0.0}, 1)
	m.Add(Tuple{"a", math.Copysign(0, -1)}, 2)

	assert.Equal(t, 1, m.Stats().Keys)
	assert.Equal(t, []RowID{1, 2}, m.Get(Tuple{"a", 0}))

	scalar := NewMapIndex("scalar", nil)
	scalar.Add(math.Copysign(0, -1), 1)
	key, _ := scalar.Min()
	assert.False(t, math.Signbit(key.(float64)))
}

func TestMapIndex_NaN(t *testing.T) {
	m := NewMapIndex("idx", nil)
	m.Add(math.NaN(), 1)
	m.Add(math.NaN(), 1)
	m.Add(float32(math.NaN()), 2)
	m.Add(-1, 3)

	assert.Equal(t, 2, m.Stats().Keys)
	assert.True(t, m.ContainsKey(math.NaN()))
	assert.Equal(t, []RowID{1, 2}, m.Get(math.NaN()))

	// NaN sorts before every other number
	assert.Equal(t, []RowID{1, 2, 3}, m.GetRange(nil, false, Unlimited, 0))
	key, _ := m.Min()
	assert.Equal(t, NaN, key)

	m.Remove(math.NaN())
	assert.False(t, m.ContainsKey(math.NaN()))
	assert.Equal(t, []RowID{3}, m.GetRange(nil, false, Unlimited, 0))

	composite := NewMapIndex("composite", NewComparator(Asc, Asc))
	composite.Add(Tuple{"a", math.NaN()}, 1)
	composite.Add(Tuple{"a", math.NaN()}, 2)
	assert.Equal(t, 1, composite.Stats().Keys)
	composite.Remove(Tuple{"a", math.NaN()}, 1, 2)
	assert.Equal(t, 0, composite.Stats().Keys)
}

func TestMapIndex_CompositeMinMaxFollowDirections(t *testing.T) {
	m := NewMapIndex("name_age", NewComparator(Asc, Desc))
	m.Add(Tuple{"ana", 30}, 1)
	m.Add(Tuple{"ana", 40}, 2)
	m.Add(Tuple{"bob", 20}, 3)
	m.Add(Tuple{"bob", 50}, 4)

	key, rows := m.Min()
	assert.Equal(t, Tuple{"ana", float64(40)}, key)
	assert.Equal(t, []RowID{2}, rows)

	key, rows = m.Max()
	assert.Equal(t, Tuple{"bob", float64(20)}, key)
	assert.Equal(t, []RowID{3}, rows)

	// min and max are the ends of a full scan
	scan := m.GetRange(nil, false, Unlimited, 0)
	assert.Equal(t, RowID(2), scan[0])
	assert.Equal(t, RowID(3), scan[len(scan)-1])
}

func TestMapIndex_ReadsDoNotMutate(t *testing.T) {
	m := newScenarioIndex()

	rows := m.Get("b")
	rows[0] = 100
	assert.Equal(t, []RowID{2, 3}, m.Get("b"))

	all := m.GetRange(nil, false, Unlimited, 0)
	all[0] = 100
	assert.Equal(t, []RowID{1, 2, 3, 4}, m.GetRange(nil, false, Unlimited, 0))
}
