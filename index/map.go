package index

import (
	"fmt"
	"slices"
)

var _ Index = (*MapIndex)(nil)

// MapIndex is an index over an unordered map from key to row id set. Key
// order is computed at query time by sorting every key, so range scans,
// Min, Max and Cost are O(n log n).
type MapIndex struct {
	name       string
	entries    map[any]*mapEntry
	comparator Comparator
	rows       int
}

type mapEntry struct {
	key  Key
	rows map[RowID]struct{}
}

func (e *mapEntry) rowIDs() []RowID {
	result := make([]RowID, 0, len(e.rows))
	for id := range e.rows {
		result = append(result, id)
	}
	slices.Sort(result)
	return result
}

// NewMapIndex creates an empty index. A nil comparator means one ascending
// column.
func NewMapIndex(name string, comparator Comparator) *MapIndex {
	if comparator == nil {
		comparator = NewSimpleComparator(Asc)
	}
	return &MapIndex{
		name:       name,
		entries:    map[any]*mapEntry{},
		comparator: comparator,
	}
}

func (m *MapIndex) Name() string {
	return m.name
}

func (m *MapIndex) Add(key Key, rowID RowID) {
	key = normalizeKey(key)
	h := hashKey(key)

	e, exists := m.entries[h]
	if !exists {
		e = &mapEntry{key: key, rows: map[RowID]struct{}{}}
		m.entries[h] = e
	}
	if _, dup := e.rows[rowID]; dup {
		return
	}
	e.rows[rowID] = struct{}{}
	m.rows++
}

func (m *MapIndex) Set(key Key, rowID RowID) {
	key = normalizeKey(key)
	h := hashKey(key)

	if e, exists := m.entries[h]; exists {
		m.rows -= len(e.rows)
	}
	m.entries[h] = &mapEntry{
		key:  key,
		rows: map[RowID]struct{}{rowID: {}},
	}
	m.rows++
}

func (m *MapIndex) Remove(key Key, rowIDs ...RowID) {
	h := hashKey(normalizeKey(key))

	e, exists := m.entries[h]
	if !exists {
		return
	}

	if len(rowIDs) == 0 {
		m.rows -= len(e.rows)
		delete(m.entries, h)
		return
	}

	for _, id := range rowIDs {
		if _, ok := e.rows[id]; ok {
			delete(e.rows, id)
			m.rows--
		}
	}
	if len(e.rows) == 0 {
		delete(m.entries, h)
	}
}

func (m *MapIndex) Get(key Key) []RowID {
	e, exists := m.entries[hashKey(normalizeKey(key))]
	if !exists {
		return []RowID{}
	}
	return e.rowIDs()
}

func (m *MapIndex) ContainsKey(key Key) bool {
	_, exists := m.entries[hashKey(normalizeKey(key))]
	return exists
}

func (m *MapIndex) Cost(keyRange *KeyRange) int {
	if keyRange == nil {
		return len(m.GetRange(nil, false, Unlimited, 0))
	}
	return len(m.GetRange([]*KeyRange{keyRange}, false, Unlimited, 0))
}

func (m *MapIndex) GetRange(ranges []*KeyRange, reverse bool, limit, skip int) []RowID {
	if len(ranges) == 0 {
		ranges = []*KeyRange{All()}
	}
	normalized := make([]*KeyRange, len(ranges))
	for i, r := range ranges {
		normalized[i] = r.normalized()
	}

	result := []RowID{}
	for _, e := range m.sortedEntries() {
		for _, r := range normalized {
			if r.contains(e.key) {
				result = append(result, e.rowIDs()...)
				break
			}
		}
	}

	return Slice(result, reverse, limit, skip)
}

// sortedEntries snapshots the entries in comparator order.
func (m *MapIndex) sortedEntries() []*mapEntry {
	snapshot := make([]*mapEntry, 0, len(m.entries))
	for _, e := range m.entries {
		snapshot = append(snapshot, e)
	}
	slices.SortStableFunc(snapshot, func(a, b *mapEntry) int {
		return int(m.comparator.Compare(a.key, b.key))
	})
	return snapshot
}

func (m *MapIndex) Min() (Key, []RowID) {
	return m.minMax(m.comparator.Min)
}

func (m *MapIndex) Max() (Key, []RowID) {
	return m.minMax(m.comparator.Max)
}

func (m *MapIndex) minMax(compare func(lhs, rhs Key) Favor) (Key, []RowID) {
	var best *mapEntry
	for _, e := range m.entries {
		if best == nil || compare(e.key, best.key) == FavorLHS {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.key, best.rowIDs()
}

func (m *MapIndex) Clear() {
	m.entries = map[any]*mapEntry{}
	m.rows = 0
}

func (m *MapIndex) Serialize() ([]Entry, error) {
	return nil, fmt.Errorf("serialize map index '%s': %w", m.name, ErrNotSupported)
}

func (m *MapIndex) Comparator() Comparator {
	return m.comparator
}

func (m *MapIndex) Stats() Stats {
	return Stats{
		Keys: len(m.entries),
		Rows: m.rows,
	}
}
