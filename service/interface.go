package service

import (
	"github.com/fulldump/rowindex/database"
	"github.com/fulldump/rowindex/table"
)

var (
	ErrorTableNotFound      = database.ErrTableNotFound
	ErrorTableAlreadyExists = database.ErrTableAlreadyExists
)

type Servicer interface {
	CreateTable(name string) (*table.Table, error)
	GetTable(name string) (*table.Table, error)
	ListTables() map[string]*table.Table
	DropTable(name string) error
}
