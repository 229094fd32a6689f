package apitablev1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fulldump/rowindex/index"
	"github.com/fulldump/rowindex/table"
	"github.com/fulldump/rowindex/utils"
)

type listIndexesItem struct {
	Name    string      `json:"name"`
	Stats   index.Stats `json:"stats"`
	Options interface{} `json:"options"`
}

func (l *listIndexesItem) MarshalJSON() ([]byte, error) {

	result := map[string]interface{}{}
	err := utils.Remarshal(l.Options, &result)
	if err != nil {
		return nil, err
	}
	result["name"] = l.Name
	result["keys"] = l.Stats.Keys
	result["rows"] = l.Stats.Rows

	return json.Marshal(result)
}

func newListIndexesItem(idx *table.Index) *listIndexesItem {
	return &listIndexesItem{
		Name:    idx.Options.Name,
		Stats:   idx.Stats(),
		Options: idx.Options,
	}
}

func createIndex(ctx context.Context, w http.ResponseWriter, input *table.IndexOptions) (*listIndexesItem, error) {

	t, err := currentTable(ctx, true)
	if err != nil {
		return nil, err
	}

	idx, err := t.CreateIndex(input)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return newListIndexesItem(idx), nil
}

func listIndexes(ctx context.Context) ([]*listIndexesItem, error) {

	t, err := currentTable(ctx, false)
	if err != nil {
		return nil, err
	}

	result := []*listIndexesItem{}
	for _, idx := range t.ListIndexes() {
		result = append(result, newListIndexesItem(idx))
	}

	return result, nil
}

type getIndexRequest struct {
	Name   string            `json:"name"`
	Ranges []*index.KeyRange `json:"ranges"`
}

// getIndex describes one index: stats, min, max and the cost of the given
// ranges.
func getIndex(ctx context.Context, input *getIndexRequest) (*table.IndexInfo, error) {

	t, err := currentTable(ctx, false)
	if err != nil {
		return nil, err
	}

	return t.DescribeIndex(input.Name, input.Ranges)
}

type dropIndexRequest struct {
	Name string `json:"name"`
}

func dropIndex(ctx context.Context, w http.ResponseWriter, input *dropIndexRequest) error {

	t, err := currentTable(ctx, false)
	if err != nil {
		return err
	}

	err = t.DropIndex(input.Name)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
