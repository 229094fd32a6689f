package apitablev1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/rowindex/table"
	"github.com/fulldump/rowindex/utils"
)

type TableResponse struct {
	Name    string `json:"name"`
	Total   int    `json:"total"`
	Indexes int    `json:"indexes"`
}

func newTableResponse(t *table.Table) *TableResponse {
	return &TableResponse{
		Name:    t.Name,
		Total:   t.Len(),
		Indexes: len(t.ListIndexes()),
	}
}

func listTables(ctx context.Context) ([]*TableResponse, error) {

	tables := GetServicer(ctx).ListTables()

	result := []*TableResponse{}
	for _, name := range utils.GetKeys(tables) {
		result = append(result, newTableResponse(tables[name]))
	}

	return result, nil
}

type createTableRequest struct {
	Name string `json:"name"`
}

func createTable(ctx context.Context, w http.ResponseWriter, input *createTableRequest) (*TableResponse, error) {

	t, err := GetServicer(ctx).CreateTable(input.Name)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return newTableResponse(t), nil
}

func getTable(ctx context.Context) (*TableResponse, error) {

	t, err := currentTable(ctx, false)
	if err != nil {
		return nil, err
	}

	return newTableResponse(t), nil
}

func dropTable(ctx context.Context, w http.ResponseWriter) error {

	tableName := box.GetUrlParameter(ctx, "tableName")
	err := GetServicer(ctx).DropTable(tableName)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func truncate(ctx context.Context, w http.ResponseWriter) error {

	t, err := currentTable(ctx, false)
	if err != nil {
		return err
	}

	err = t.Truncate()
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func snapshot(ctx context.Context) (*TableResponse, error) {

	t, err := currentTable(ctx, false)
	if err != nil {
		return nil, err
	}

	err = t.Snapshot()
	if err != nil {
		return nil, err
	}

	return newTableResponse(t), nil
}
