package index

import "slices"

// Slice paginates a scan result: the whole list is reversed first, then
// skip rows are dropped and at most limit rows kept (limit < 0 keeps all).
// rows is not modified.
func Slice(rows []RowID, reverse bool, limit, skip int) []RowID {
	result := slices.Clone(rows)
	if reverse {
		slices.Reverse(result)
	}

	if skip > 0 {
		if skip >= len(result) {
			return []RowID{}
		}
		result = result[skip:]
	}

	if limit >= 0 && limit < len(result) {
		result = result[:limit]
	}

	if result == nil {
		result = []RowID{}
	}
	return result
}
