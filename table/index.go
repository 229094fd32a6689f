package table

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fulldump/rowindex/index"
)

// IndexOptions describes a table index. A field prefixed with "-" is
// sorted in descending order. Several fields make a composite key.
type IndexOptions struct {
	Name   string   `json:"name" msgpack:"name"`
	Fields []string `json:"fields" msgpack:"fields"`
	Unique bool     `json:"unique" msgpack:"unique"`
	Sparse bool     `json:"sparse" msgpack:"sparse"`
}

type Index struct {
	index.Index
	Options *IndexOptions
}

func newIndex(options *IndexOptions) (*Index, error) {
	if options.Name == "" {
		return nil, errors.New("index name is mandatory")
	}
	if len(options.Fields) == 0 {
		return nil, errors.New("index needs at least one field")
	}

	orders := make([]index.Order, len(options.Fields))
	for i, field := range options.Fields {
		if strings.HasPrefix(field, "-") {
			orders[i] = index.Desc
		}
		if strings.TrimPrefix(field, "-") == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
	}

	return &Index{
		Index:   index.NewMapIndex(options.Name, index.NewComparator(orders...)),
		Options: options,
	}, nil
}

// FieldNames returns the indexed fields without direction prefix.
func (i *Index) FieldNames() []string {
	names := make([]string, len(i.Options.Fields))
	for n, field := range i.Options.Fields {
		names[n] = strings.TrimPrefix(field, "-")
	}
	return names
}

// keyOf extracts the key of a row. Fields are gjson paths so nested
// values ("address.city") can be indexed. ok is false when a sparse index
// does not cover the row.
func (i *Index) keyOf(row *Row) (key index.Key, ok bool, err error) {
	fields := i.FieldNames()

	values := make(index.Tuple, 0, len(fields))
	for _, field := range fields {
		result := gjson.GetBytes(row.Payload, field)
		if !result.Exists() {
			if i.Options.Sparse {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("field `%s` is indexed and mandatory", field)
		}
		values = append(values, result.Value())
	}

	if len(values) == 1 {
		return values[0], true, nil
	}
	return values, true, nil
}

func (i *Index) put(key index.Key, id index.RowID) {
	if i.Options.Unique {
		i.Set(key, id)
		return
	}
	i.Add(key, id)
}

// CreateIndex indexes every existing row. On error the table is left
// untouched.
func (t *Table) CreateIndex(options *IndexOptions) (*Index, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.journal == nil {
		return nil, ErrTableClosed
	}

	idx, err := t.createIndex(options)
	if err != nil {
		return nil, err
	}

	err = t.persist(commandIndex, options)
	if err != nil {
		return nil, err
	}

	return idx, nil
}

func (t *Table) createIndex(options *IndexOptions) (*Index, error) {
	if _, exists := t.Indexes[options.Name]; exists {
		return nil, fmt.Errorf("index '%s': %w", options.Name, ErrIndexExists)
	}

	idx, err := newIndex(options)
	if err != nil {
		return nil, err
	}

	err = t.fillIndex(idx)
	if err != nil {
		return nil, err
	}

	t.Indexes[options.Name] = idx

	t.logger.Debug("index built",
		"index", options.Name,
		"fields", options.Fields,
		"unique", options.Unique,
		"keys", idx.Stats().Keys)

	return idx, nil
}

func (t *Table) fillIndex(idx *Index) error {
	var err error
	t.rows.Ascend(func(row *Row) bool {
		var key index.Key
		var ok bool
		key, ok, err = idx.keyOf(row)
		if err != nil {
			err = fmt.Errorf("index row %d: %w", row.ID, err)
			return false
		}
		if !ok {
			return true
		}
		if idx.Options.Unique && idx.ContainsKey(key) {
			err = fmt.Errorf("%w: index '%s' with value '%v'", ErrIndexConflict, idx.Options.Name, key)
			return false
		}
		idx.put(key, row.ID)
		return true
	})
	return err
}

func (t *Table) DropIndex(name string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.journal == nil {
		return ErrTableClosed
	}

	if _, exists := t.Indexes[name]; !exists {
		return fmt.Errorf("index '%s': %w", name, ErrIndexNotFound)
	}
	delete(t.Indexes, name)

	return t.persist(commandDropIndex, &dropIndexPayload{Name: name})
}

func (t *Table) GetIndex(name string) (*Index, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	idx, exists := t.Indexes[name]
	if !exists {
		return nil, fmt.Errorf("index '%s': %w", name, ErrIndexNotFound)
	}
	return idx, nil
}

// ListIndexes returns the indexes sorted by name.
func (t *Table) ListIndexes() []*Index {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	result := make([]*Index, 0, len(t.Indexes))
	for _, name := range t.indexNames() {
		result = append(result, t.Indexes[name])
	}
	return result
}

// IndexInfo is a consistent view of one index.
type IndexInfo struct {
	Name    string        `json:"name"`
	Options *IndexOptions `json:"options"`
	Stats   index.Stats   `json:"stats"`
	Min     index.Key     `json:"min"`
	MinRows []index.RowID `json:"min_rows"`
	Max     index.Key     `json:"max"`
	MaxRows []index.RowID `json:"max_rows"`
	Cost    int           `json:"cost"`
}

// DescribeIndex reports stats, min, max and the cost of scanning ranges
// (every key when empty).
func (t *Table) DescribeIndex(name string, ranges []*index.KeyRange) (*IndexInfo, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	idx, exists := t.Indexes[name]
	if !exists {
		return nil, fmt.Errorf("index '%s': %w", name, ErrIndexNotFound)
	}

	info := &IndexInfo{
		Name:    name,
		Options: idx.Options,
		Stats:   idx.Stats(),
		Cost:    rangesCost(idx, ranges),
	}
	info.Min, info.MinRows = idx.Min()
	info.Max, info.MaxRows = idx.Max()

	return info, nil
}

// rangesCost is the number of row ids a scan of ranges yields, counted
// with the same union semantics as the scan itself.
func rangesCost(idx index.Index, ranges []*index.KeyRange) int {
	return len(scan(idx, ranges, false, index.Unlimited, 0))
}

// scan reads ranges from idx. When every range is a single key the rows are
// fetched with Get, skipping the key sort of GetRange. The result is the
// same either way.
func scan(idx index.Index, ranges []*index.KeyRange, reverse bool, limit, skip int) []index.RowID {
	keys, ok := pointKeys(idx.Comparator(), ranges)
	if !ok {
		return idx.GetRange(ranges, reverse, limit, skip)
	}

	ids := []index.RowID{}
	for _, key := range keys {
		ids = append(ids, idx.Get(key)...)
	}
	return index.Slice(ids, reverse, limit, skip)
}

// pointKeys returns the distinct keys of ranges in scan order. ok is false
// unless every range matches exactly one key.
func pointKeys(c index.Comparator, ranges []*index.KeyRange) (keys []index.Key, ok bool) {
	if len(ranges) == 0 {
		return nil, false
	}
	keys = make([]index.Key, 0, len(ranges))
	for _, r := range ranges {
		if !r.IsOnly() {
			return nil, false
		}
		keys = append(keys, r.From)
	}

	slices.SortStableFunc(keys, func(a, b index.Key) int {
		return int(c.Compare(a, b))
	})
	keys = slices.CompactFunc(keys, func(a, b index.Key) bool {
		return c.Compare(a, b) == index.FavorTie
	})
	return keys, true
}
