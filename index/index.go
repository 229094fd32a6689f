package index

import "errors"

// ErrNotSupported is returned by operations a variant cannot provide, such
// as Serialize on an index that is rebuilt from table data on load.
var ErrNotSupported = errors.New("not supported")

// Unlimited disables the limit of GetRange and Slice.
const Unlimited = -1

// Index maps keys to sets of row ids. Implementations are not synchronized;
// callers serialize access to one instance.
type Index interface {
	Name() string

	// Add puts rowID in the set of key. Adding the same pair twice has no
	// effect.
	Add(key Key, rowID RowID)

	// Set replaces the whole set of key with {rowID}.
	Set(key Key, rowID RowID)

	// Remove drops the given row ids from key, or the whole key when none
	// is given. Unknown keys and ids are ignored.
	Remove(key Key, rowIDs ...RowID)

	// Get returns the row ids of key, empty when absent.
	Get(key Key) []RowID

	ContainsKey(key Key) bool

	// Cost estimates how many row ids GetRange would return for keyRange
	// (nil means every key).
	Cost(keyRange *KeyRange) int

	// GetRange returns the row ids of every key inside any of ranges (nil
	// means All), in key order, then applies Slice(reverse, limit, skip).
	GetRange(ranges []*KeyRange, reverse bool, limit, skip int) []RowID

	// Min returns the smallest key and its row ids, or nil, nil if empty.
	Min() (Key, []RowID)

	// Max returns the largest key and its row ids, or nil, nil if empty.
	Max() (Key, []RowID)

	Clear()

	// Serialize returns a persistable form of the index or an error
	// wrapping ErrNotSupported.
	Serialize() ([]Entry, error)

	Comparator() Comparator

	Stats() Stats
}

// Entry is the persisted form of one key.
type Entry struct {
	Key    Key     `json:"key" msgpack:"key"`
	RowIDs []RowID `json:"row_ids" msgpack:"row_ids"`
}

// Stats describes the content of an index.
type Stats struct {
	Keys int `json:"keys"`
	Rows int `json:"rows"`
}
