package database

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fulldump/rowindex/table"
	"github.com/fulldump/rowindex/utils"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

var (
	ErrTableNotFound      = errors.New("table not found")
	ErrTableAlreadyExists = errors.New("table already exists")
	ErrInvalidTableName   = errors.New("invalid table name")
)

type Config struct {
	Dir            string
	SnapshotOnStop bool
}

type Database struct {
	Config *Config
	status string
	tables map[string]*table.Table
	mutex  *sync.RWMutex
	logger *slog.Logger
	exit   chan struct{}
	stop   *sync.Once
}

func NewDatabase(config *Config, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}

	return &Database{
		Config: config,
		status: StatusOpening,
		tables: map[string]*table.Table{},
		mutex:  &sync.RWMutex{},
		logger: logger,
		exit:   make(chan struct{}),
		stop:   &sync.Once{},
	}
}

func (db *Database) GetStatus() string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.mutex.Lock()
	db.status = status
	db.mutex.Unlock()
}

func validTableName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\:`)
}

func (db *Database) CreateTable(name string) (*table.Table, error) {
	if !validTableName(name) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidTableName, name)
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, exists := db.tables[name]; exists {
		return nil, fmt.Errorf("table '%s': %w", name, ErrTableAlreadyExists)
	}

	t, err := table.OpenTable(db.Config.Dir, name, db.logger)
	if err != nil {
		return nil, err
	}
	db.tables[name] = t

	db.logger.Info("table created", "table", name)

	return t, nil
}

func (db *Database) GetTable(name string) (*table.Table, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	t, exists := db.tables[name]
	if !exists {
		return nil, fmt.Errorf("table '%s': %w", name, ErrTableNotFound)
	}
	return t, nil
}

// Tables returns a copy of the table set.
func (db *Database) Tables() map[string]*table.Table {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	result := make(map[string]*table.Table, len(db.tables))
	for name, t := range db.tables {
		result[name] = t
	}
	return result
}

func (db *Database) DropTable(name string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	t, exists := db.tables[name]
	if !exists {
		return fmt.Errorf("table '%s': %w", name, ErrTableNotFound)
	}

	err := t.Drop()
	if err != nil {
		return fmt.Errorf("drop table '%s': %w", name, err)
	}
	delete(db.tables, name)

	db.logger.Info("table dropped", "table", name)

	return nil
}

// Load opens every table found in the data directory.
func (db *Database) Load() error {

	dir := db.Config.Dir
	db.logger.Info("loading database", "dir", dir)

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	names := map[string]bool{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != table.JournalExtension && ext != table.SnapshotExtension {
			continue
		}
		names[strings.TrimSuffix(entry.Name(), ext)] = true
	}

	for _, name := range utils.GetKeys(names) {
		t0 := time.Now()
		t, err := table.OpenTable(dir, name, db.logger)
		if err != nil {
			db.logger.Error("open table", "table", name, "error", err.Error())
			db.setStatus(StatusClosing)
			return fmt.Errorf("open table '%s': %w", name, err)
		}

		db.mutex.Lock()
		db.tables[name] = t
		db.mutex.Unlock()

		db.logger.Info("table loaded",
			"table", name,
			"rows", t.Len(),
			"indexes", len(t.ListIndexes()),
			"elapsed", time.Since(t0).String())
	}

	db.setStatus(StatusOperating)

	return nil
}

// Start loads the database and blocks until Stop is called.
func (db *Database) Start() error {

	err := db.Load()
	if err != nil {
		return err
	}

	<-db.exit

	return nil
}

// Stop snapshots (if configured) and closes every table, then releases
// Start. Only the first call does the work, later calls return nil.
func (db *Database) Stop() error {
	var err error
	db.stop.Do(func() {
		err = db.shutdown()
	})
	return err
}

func (db *Database) shutdown() error {
	defer close(db.exit)

	db.setStatus(StatusClosing)

	var lastErr error
	for name, t := range db.Tables() {
		if db.Config.SnapshotOnStop {
			err := t.Snapshot()
			if err != nil {
				db.logger.Error("snapshot table", "table", name, "error", err.Error())
				lastErr = err
			}
		}

		db.logger.Info("closing table", "table", name)
		err := t.Close()
		if err != nil {
			db.logger.Error("close table", "table", name, "error", err.Error())
			lastErr = err
		}
	}

	return lastErr
}
