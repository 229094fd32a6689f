package service

import (
	"github.com/fulldump/rowindex/database"
	"github.com/fulldump/rowindex/table"
)

type Service struct {
	db *database.Database
}

func NewService(db *database.Database) *Service {
	return &Service{
		db: db,
	}
}

func (s *Service) CreateTable(name string) (*table.Table, error) {
	return s.db.CreateTable(name)
}

func (s *Service) GetTable(name string) (*table.Table, error) {
	return s.db.GetTable(name)
}

func (s *Service) ListTables() map[string]*table.Table {
	return s.db.Tables()
}

func (s *Service) DropTable(name string) error {
	return s.db.DropTable(name)
}
