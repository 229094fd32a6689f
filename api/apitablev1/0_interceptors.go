package apitablev1

import (
	"context"
	"errors"

	"github.com/fulldump/box"

	"github.com/fulldump/rowindex/service"
	"github.com/fulldump/rowindex/table"
)

type contextKey string

const ContextServicerKey contextKey = "ed0fa170-5593-11ed-9d60-9bdc940af29d"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer)
}

// currentTable resolves {tableName}. With create, a missing table is
// created on the fly.
func currentTable(ctx context.Context, create bool) (*table.Table, error) {
	s := GetServicer(ctx)
	tableName := box.GetUrlParameter(ctx, "tableName")

	t, err := s.GetTable(tableName)
	if errors.Is(err, service.ErrorTableNotFound) && create {
		return s.CreateTable(tableName)
	}
	return t, err
}
