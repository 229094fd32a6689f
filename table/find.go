package table

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fulldump/rowindex/index"
)

// Query selects rows. Index and Ranges force an index scan; otherwise the
// planner picks an index from Filter and OrderBy or falls back to a full
// scan. Filter uses connor (mongo like) syntax and is always applied.
// OrderBy is a field name, "-" prefixed for descending. Reverse flips the
// final order. Limit <= 0 means no limit.
type Query struct {
	Index   string            `json:"index"`
	Ranges  []*index.KeyRange `json:"ranges"`
	Filter  map[string]any    `json:"filter"`
	OrderBy string            `json:"order_by"`
	Reverse bool              `json:"reverse"`
	Skip    int               `json:"skip"`
	Limit   int               `json:"limit"`
}

// Plan is how a Query is executed.
type Plan struct {
	Index  string            `json:"index,omitempty"`
	Ranges []*index.KeyRange `json:"ranges,omitempty"`
	Cost   int               `json:"cost"`

	// Reverse is applied by the slicing step.
	Reverse bool `json:"reverse"`

	// Sorted is true when the scan already yields OrderBy order.
	Sorted bool `json:"sorted"`
}

func (p *Plan) Fullscan() bool {
	return p.Index == ""
}

func (t *Table) Explain(q *Query) (*Plan, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.explain(q)
}

func (t *Table) explain(q *Query) (*Plan, error) {
	if q.Index != "" {
		idx, exists := t.Indexes[q.Index]
		if !exists {
			return nil, fmt.Errorf("index '%s': %w", q.Index, ErrIndexNotFound)
		}
		return t.planIndex(idx, q.Ranges, q), nil
	}

	var best *Plan
	for _, name := range t.indexNames() {
		idx := t.Indexes[name]
		ranges, ok := rangesFromFilter(idx, q.Filter)
		if !ok {
			continue
		}
		plan := t.planIndex(idx, ranges, q)
		if best == nil || plan.Cost < best.Cost || (plan.Cost == best.Cost && plan.Sorted && !best.Sorted) {
			best = plan
		}
	}
	if best != nil && best.Cost < t.rows.Len() {
		return best, nil
	}

	// no selective index, an index can still avoid sorting
	if q.OrderBy != "" {
		for _, name := range t.indexNames() {
			idx := t.Indexes[name]
			if idx.Options.Sparse {
				continue // would miss rows
			}
			plan := t.planIndex(idx, nil, q)
			if plan.Sorted {
				return plan, nil
			}
		}
	}

	return &Plan{
		Cost:    t.rows.Len(),
		Reverse: q.Reverse,
	}, nil
}

func (t *Table) planIndex(idx *Index, ranges []*index.KeyRange, q *Query) *Plan {
	plan := &Plan{
		Index:   idx.Options.Name,
		Ranges:  ranges,
		Cost:    rangesCost(idx, ranges),
		Reverse: q.Reverse,
	}

	if q.OrderBy == "" {
		plan.Sorted = true
		return plan
	}

	field := strings.TrimPrefix(q.OrderBy, "-")
	want := index.Asc
	if strings.HasPrefix(q.OrderBy, "-") {
		want = index.Desc
	}
	if idx.FieldNames()[0] != field {
		return plan
	}
	ok, reverse := index.OrderCompatible(idx.Comparator().Orders(), []index.Order{want})
	if ok {
		plan.Sorted = true
		plan.Reverse = reverse != q.Reverse
	}
	return plan
}

// rangesFromFilter derives key ranges for idx from the conditions on its
// first field. ok is false when nothing can be derived.
func rangesFromFilter(idx *Index, filter map[string]any) ([]*index.KeyRange, bool) {
	fields := idx.FieldNames()
	condition, exists := filter[fields[0]]
	if !exists {
		return nil, false
	}

	values, ranges, ok := parseCondition(condition)
	if !ok {
		return nil, false
	}

	if len(fields) > 1 {
		// composite keys only support a prefix match on the first field
		if values == nil {
			return nil, false
		}
		ranges := make([]*index.KeyRange, 0, len(values))
		for _, v := range values {
			bound := make(index.Tuple, len(fields))
			bound[0] = v
			for i := 1; i < len(fields); i++ {
				bound[i] = index.Unbound
			}
			ranges = append(ranges, index.NewKeyRange(bound, bound, false, false))
		}
		return ranges, true
	}

	if values != nil {
		ranges := make([]*index.KeyRange, 0, len(values))
		for _, v := range values {
			ranges = append(ranges, index.Only(v))
		}
		return ranges, true
	}

	if idx.Options.Sparse && isNotEqual(condition) {
		// rows without the field match $ne but are not in a sparse index
		return nil, false
	}
	return ranges, true
}

func isNotEqual(condition any) bool {
	operators, isMap := condition.(map[string]any)
	if !isMap {
		return false
	}
	_, exists := operators["$ne"]
	return exists
}

// parseCondition understands a bare value, $eq, $in, $ne, $gt, $gte ($ge),
// $lt and $lte ($le). values is set for equality conditions, ranges
// otherwise.
func parseCondition(condition any) (values []any, ranges []*index.KeyRange, ok bool) {
	operators, isMap := condition.(map[string]any)
	if !isMap {
		return []any{condition}, nil, true
	}

	if v, exists := operators["$eq"]; exists {
		return []any{v}, nil, true
	}
	if v, exists := operators["$in"]; exists {
		list, isList := v.([]any)
		if !isList {
			return nil, nil, false
		}
		return list, nil, true
	}
	if v, exists := operators["$ne"]; exists {
		if len(operators) > 1 {
			return nil, nil, false
		}
		return nil, index.Only(v).Complement(), true
	}

	bounds := index.NewKeyRange(index.Unbound, index.Unbound, false, false)
	for op, v := range operators {
		switch op {
		case "$gt":
			bounds.From, bounds.ExcludeFrom = v, true
		case "$gte", "$ge":
			bounds.From, bounds.ExcludeFrom = v, false
		case "$lt":
			bounds.To, bounds.ExcludeTo = v, true
		case "$lte", "$le":
			bounds.To, bounds.ExcludeTo = v, false
		}
	}
	if bounds.IsAll() {
		return nil, nil, false
	}
	return nil, []*index.KeyRange{bounds}, true
}

// Find runs q and returns the matching rows.
func (t *Table) Find(q *Query) ([]*Row, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	plan, err := t.explain(q)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = index.Unlimited
	}

	hasFilter := len(q.Filter) > 0
	sortInMemory := q.OrderBy != "" && !plan.Sorted

	var ids []index.RowID
	if plan.Fullscan() {
		ids = make([]index.RowID, 0, t.rows.Len())
		t.rows.Ascend(func(row *Row) bool {
			ids = append(ids, row.ID)
			return true
		})
	} else {
		idx := t.Indexes[plan.Index]
		if !hasFilter && !sortInMemory {
			return t.materialize(scan(idx, plan.Ranges, plan.Reverse, limit, q.Skip)), nil
		}
		ids = scan(idx, plan.Ranges, false, index.Unlimited, 0)
	}

	rows := t.materialize(ids)
	if hasFilter {
		rows, err = filterRows(rows, q.Filter)
		if err != nil {
			return nil, err
		}
	}
	if sortInMemory {
		sortRows(rows, q.OrderBy)
	}

	ids = ids[:0]
	byID := make(map[index.RowID]*Row, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
		byID[row.ID] = row
	}

	result := make([]*Row, 0, len(ids))
	for _, id := range index.Slice(ids, plan.Reverse, limit, q.Skip) {
		result = append(result, byID[id])
	}
	return result, nil
}

func (t *Table) materialize(ids []index.RowID) []*Row {
	rows := make([]*Row, 0, len(ids))
	for _, id := range ids {
		row, ok := t.rows.Get(&Row{ID: id})
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func sortRows(rows []*Row, orderBy string) {
	field := strings.TrimPrefix(orderBy, "-")
	desc := strings.HasPrefix(orderBy, "-")
	slices.SortStableFunc(rows, func(a, b *Row) int {
		c := index.CompareValues(
			gjson.GetBytes(a.Payload, field).Value(),
			gjson.GetBytes(b.Payload, field).Value())
		if desc {
			return -c
		}
		return c
	})
}
