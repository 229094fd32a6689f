package table

import (
	"os"
)

func Environment(f func(dir string)) {
	dir, err := os.MkdirTemp("", "rowindex-table-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	f(dir)
}

func openTable(dir string) *Table {
	t, err := OpenTable(dir, "people", nil)
	if err != nil {
		panic(err)
	}
	return t
}

func rowIDs(rows []*Row) []int64 {
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids
}
