package table

import (
	"fmt"

	"github.com/SierraSoftworks/connor"
)

// connor names these $ge and $le, the mongo spelling is accepted too.
func init() {
	connor.Register(&aliasOperator{name: "gte", target: "$ge"})
	connor.Register(&aliasOperator{name: "lte", target: "$le"})
}

type aliasOperator struct {
	name   string
	target string
}

func (o *aliasOperator) Name() string {
	return o.name
}

func (o *aliasOperator) Evaluate(condition, data any) (bool, error) {
	return connor.MatchWith(o.target, condition, data)
}

func filterRows(rows []*Row, filter map[string]any) ([]*Row, error) {
	result := rows[:0]
	for _, row := range rows {
		match, err := connor.Match(filter, row.Decoded)
		if err != nil {
			return nil, fmt.Errorf("match: %w", err)
		}
		if match {
			result = append(result, row)
		}
	}
	return result, nil
}
