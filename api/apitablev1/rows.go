package apitablev1

import (
	"context"
	"errors"
	"io"
	"net/http"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/rowindex/table"
)

// insert reads a stream of JSON objects and answers one row per line.
func insert(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	t, err := currentTable(ctx, true)
	if err != nil {
		return err
	}

	decoder := jsontext.NewDecoder(r.Body)
	encoder := jsontext.NewEncoder(w)

	for i := 0; ; i++ {
		item := map[string]any{}
		err := json2.UnmarshalDecode(decoder, &item)
		if errors.Is(err, io.EOF) {
			if i == 0 {
				w.WriteHeader(http.StatusNoContent)
			}
			return nil
		}
		if err != nil {
			return err
		}

		row, err := t.Insert(item)
		if err != nil {
			return err
		}

		if i == 0 {
			w.WriteHeader(http.StatusCreated)
		}
		err = json2.MarshalEncode(encoder, row)
		if err != nil {
			return err
		}
	}
}

func writeRows(w http.ResponseWriter, rows []*table.Row) error {
	encoder := jsontext.NewEncoder(w)
	for _, row := range rows {
		err := json2.MarshalEncode(encoder, row)
		if err != nil {
			return err
		}
	}
	return nil
}

func find(ctx context.Context, w http.ResponseWriter, input *table.Query) error {

	t, err := currentTable(ctx, false)
	if err != nil {
		return err
	}

	rows, err := t.Find(input)
	if err != nil {
		return err
	}

	return writeRows(w, rows)
}

func explain(ctx context.Context, input *table.Query) (*table.Plan, error) {

	t, err := currentTable(ctx, false)
	if err != nil {
		return nil, err
	}

	return t.Explain(input)
}

type patchRequest struct {
	table.Query
	Patch map[string]any `json:"patch"`
}

// patch applies the same diff to every row selected by the query.
func patch(ctx context.Context, w http.ResponseWriter, input *patchRequest) error {

	t, err := currentTable(ctx, false)
	if err != nil {
		return err
	}

	rows, err := t.Find(&input.Query)
	if err != nil {
		return err
	}

	patched := make([]*table.Row, 0, len(rows))
	for _, row := range rows {
		row, err := t.Patch(row.ID, input.Patch)
		if err != nil {
			return err
		}
		patched = append(patched, row)
	}

	return writeRows(w, patched)
}

func remove(ctx context.Context, w http.ResponseWriter, input *table.Query) error {

	t, err := currentTable(ctx, false)
	if err != nil {
		return err
	}

	rows, err := t.Find(input)
	if err != nil {
		return err
	}

	removed := make([]*table.Row, 0, len(rows))
	for _, row := range rows {
		row, err := t.Delete(row.ID)
		if err != nil {
			return err
		}
		removed = append(removed, row)
	}

	return writeRows(w, removed)
}
