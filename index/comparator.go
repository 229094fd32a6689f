package index

// Order is the sort direction of one index column.
type Order int

const (
	Asc Order = iota
	Desc
)

func (o Order) String() string {
	if o == Desc {
		return "desc"
	}
	return "asc"
}

// Favor is the outcome of comparing a left and a right key.
type Favor int

const (
	FavorRHS Favor = -1
	FavorTie Favor = 0
	FavorLHS Favor = 1
)

func (f Favor) String() string {
	switch f {
	case FavorLHS:
		return "lhs"
	case FavorRHS:
		return "rhs"
	}
	return "tie"
}

// Comparator defines the total order of the keys of one index.
type Comparator interface {
	// Compare orders keys as the index does: FavorLHS when lhs sorts after
	// rhs in the configured direction.
	Compare(lhs, rhs Key) Favor

	// Min is FavorLHS when lhs is the smaller key, FavorRHS when rhs is.
	Min(lhs, rhs Key) Favor

	// Max is FavorLHS when lhs is the larger key, FavorRHS when rhs is.
	Max(lhs, rhs Key) Favor

	IsInRange(key Key, keyRange *KeyRange) bool

	// Orders returns one direction per key component.
	Orders() []Order
}

// NewComparator returns a SimpleComparator for a single column and a
// MultiKeyComparator for composite keys. No orders means one ascending
// column.
func NewComparator(orders ...Order) Comparator {
	switch len(orders) {
	case 0:
		return NewSimpleComparator(Asc)
	case 1:
		return NewSimpleComparator(orders[0])
	}
	return NewMultiKeyComparator(orders...)
}

func favor(c int) Favor {
	switch {
	case c > 0:
		return FavorLHS
	case c < 0:
		return FavorRHS
	}
	return FavorTie
}

type SimpleComparator struct {
	order Order
}

func NewSimpleComparator(order Order) *SimpleComparator {
	return &SimpleComparator{order: order}
}

func (s *SimpleComparator) Compare(lhs, rhs Key) Favor {
	c := CompareValues(lhs, rhs)
	if s.order == Desc {
		c = -c
	}
	return favor(c)
}

func (s *SimpleComparator) Min(lhs, rhs Key) Favor {
	return favor(-CompareValues(lhs, rhs))
}

func (s *SimpleComparator) Max(lhs, rhs Key) Favor {
	return favor(CompareValues(lhs, rhs))
}

func (s *SimpleComparator) IsInRange(key Key, keyRange *KeyRange) bool {
	return keyRange.Contains(key)
}

func (s *SimpleComparator) Orders() []Order {
	return []Order{s.order}
}

// MultiKeyComparator compares Tuple keys component by component, each
// component sorted in its own direction.
type MultiKeyComparator struct {
	orders []Order
}

func NewMultiKeyComparator(orders ...Order) *MultiKeyComparator {
	return &MultiKeyComparator{orders: append([]Order{}, orders...)}
}

func (m *MultiKeyComparator) Compare(lhs, rhs Key) Favor {
	return favor(m.compare(normalizeKey(lhs), normalizeKey(rhs)))
}

func (m *MultiKeyComparator) compare(lhs, rhs Key) int {
	lt, ok := lhs.(Tuple)
	rt, ok2 := rhs.(Tuple)
	if !ok || !ok2 {
		c := compareNormalized(lhs, rhs)
		if len(m.orders) > 0 && m.orders[0] == Desc {
			c = -c
		}
		return c
	}

	for i := 0; i < len(lt) && i < len(rt); i++ {
		c := compareNormalized(lt[i], rt[i])
		if c == 0 {
			continue
		}
		if i < len(m.orders) && m.orders[i] == Desc {
			c = -c
		}
		return c
	}
	return cmpInt(len(lt), len(rt))
}

// Min and Max fold component by component, each component honouring its
// own direction, so Min is the first key of an index scan.
func (m *MultiKeyComparator) Min(lhs, rhs Key) Favor {
	return favor(-m.compare(normalizeKey(lhs), normalizeKey(rhs)))
}

func (m *MultiKeyComparator) Max(lhs, rhs Key) Favor {
	return favor(m.compare(normalizeKey(lhs), normalizeKey(rhs)))
}

func (m *MultiKeyComparator) IsInRange(key Key, keyRange *KeyRange) bool {
	return keyRange.Contains(key)
}

func (m *MultiKeyComparator) Orders() []Order {
	return append([]Order{}, m.orders...)
}

// OrderCompatible tells whether scanning an index whose comparator has
// orders `have` yields rows sorted by `want`, directly or reversed. want may
// be a prefix of have.
func OrderCompatible(have, want []Order) (ok, reverse bool) {
	if len(want) == 0 || len(want) > len(have) {
		return false, false
	}

	same, inverted := true, true
	for i, o := range want {
		if have[i] == o {
			inverted = false
		} else {
			same = false
		}
	}

	if same {
		return true, false
	}
	if inverted {
		return true, true
	}
	return false, false
}
