package table

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/google/btree"
	"github.com/tidwall/sjson"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/rowindex/index"
)

var (
	ErrRowNotFound   = errors.New("row not found")
	ErrIndexNotFound = errors.New("index not found")
	ErrIndexExists   = errors.New("index already exists")
	ErrIndexConflict = errors.New("index conflict")
	ErrTableClosed   = errors.New("table is closed")
)

const (
	JournalExtension  = ".journal"
	SnapshotExtension = ".snapshot"
)

type Table struct {
	Name     string
	filename string // journal, the snapshot lives next to it
	journal  *os.File
	encoder  *jsontext.Encoder
	rows     *btree.BTreeG[*Row]
	nextID   index.RowID
	mutex    *sync.RWMutex
	Indexes  map[string]*Index
	logger   *slog.Logger
}

type Row struct {
	ID      index.RowID     `json:"id"`
	Payload json.RawMessage `json:"payload"`
	Decoded map[string]any  `json:"-"`
}

func newRow(id index.RowID, payload []byte) (*Row, error) {
	decoded := map[string]any{}
	err := json2.Unmarshal(payload, &decoded)
	if err != nil {
		return nil, fmt.Errorf("decode row %d: %w", id, err)
	}
	return &Row{
		ID:      id,
		Payload: payload,
		Decoded: decoded,
	}, nil
}

func lessRow(a, b *Row) bool {
	return a.ID < b.ID
}

// OpenTable loads <dir>/<name>.snapshot (if any), replays
// <dir>/<name>.journal on top and opens the journal for append.
func OpenTable(dir, name string, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Table{
		Name:     name,
		filename: filepath.Join(dir, name+JournalExtension),
		rows:     btree.NewG(32, lessRow),
		mutex:    &sync.RWMutex{},
		Indexes:  map[string]*Index{},
		logger:   logger.With(slog.String("table", name)),
	}

	err := t.loadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	err = t.replay()
	if err != nil {
		return nil, fmt.Errorf("replay journal: %w", err)
	}

	t.journal, err = os.OpenFile(t.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open journal for write: %w", err)
	}
	t.encoder = jsontext.NewEncoder(t.journal)

	t.logger.Debug("table opened",
		slog.Int("rows", t.rows.Len()),
		slog.Int("indexes", len(t.Indexes)))

	return t, nil
}

func (t *Table) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.journal == nil {
		return nil
	}
	err := t.journal.Close()
	t.journal = nil
	t.encoder = nil
	return err
}

// Drop closes the table and removes its files.
func (t *Table) Drop() error {
	err := t.Close()
	if err != nil {
		return err
	}
	for _, filename := range []string{t.filename, t.snapshotFilename()} {
		err := os.Remove(filename)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (t *Table) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.rows.Len()
}

func (t *Table) Get(id index.RowID) (*Row, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	row, ok := t.rows.Get(&Row{ID: id})
	if !ok {
		return nil, fmt.Errorf("row %d: %w", id, ErrRowNotFound)
	}
	return row, nil
}

func (t *Table) Insert(item map[string]any) (*Row, error) {
	payload, err := json2.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("json encode payload: %w", err)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.journal == nil {
		return nil, ErrTableClosed
	}

	row, err := newRow(t.nextID+1, payload)
	if err != nil {
		return nil, err
	}

	err = t.addRow(row)
	if err != nil {
		return nil, err
	}

	err = t.persist(commandInsert, &insertPayload{ID: row.ID, Data: payload})
	if err != nil {
		return nil, err
	}

	return row, nil
}

func (t *Table) addRow(row *Row) error {
	keys, err := t.indexKeys(row, nil)
	if err != nil {
		return err
	}

	for name, key := range keys {
		t.Indexes[name].put(key, row.ID)
	}
	t.rows.ReplaceOrInsert(row)
	if row.ID > t.nextID {
		t.nextID = row.ID
	}
	return nil
}

// indexKeys computes the key of row for every index and checks unique
// constraints. previous is the current version of the row when updating.
func (t *Table) indexKeys(row, previous *Row) (map[string]index.Key, error) {
	keys := map[string]index.Key{}
	for _, name := range t.indexNames() {
		idx := t.Indexes[name]
		key, ok, err := idx.keyOf(row)
		if err != nil {
			return nil, fmt.Errorf("index '%s': %w", name, err)
		}
		if !ok {
			continue
		}
		if idx.Options.Unique && idx.ContainsKey(key) {
			owner := idx.Get(key)
			if previous == nil || len(owner) != 1 || owner[0] != previous.ID {
				return nil, fmt.Errorf("%w: index '%s' with value '%v'", ErrIndexConflict, name, key)
			}
		}
		keys[name] = key
	}
	return keys, nil
}

func (t *Table) removeKeys(row *Row) {
	for _, idx := range t.Indexes {
		key, ok, err := idx.keyOf(row)
		if err != nil || !ok {
			continue
		}
		idx.Remove(key, row.ID)
	}
}

// Patch merges diff into the row. Keys are sjson paths, a nil value
// removes the field.
func (t *Table) Patch(id index.RowID, diff map[string]any) (*Row, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.journal == nil {
		return nil, ErrTableClosed
	}

	row, err := t.patchRow(id, diff)
	if err != nil {
		return nil, err
	}

	err = t.persist(commandPatch, &patchPayload{ID: id, Diff: diff})
	if err != nil {
		return nil, err
	}

	return row, nil
}

func (t *Table) patchRow(id index.RowID, diff map[string]any) (*Row, error) {
	old, ok := t.rows.Get(&Row{ID: id})
	if !ok {
		return nil, fmt.Errorf("row %d: %w", id, ErrRowNotFound)
	}

	payload := old.Payload
	for _, path := range slices.Sorted(maps.Keys(diff)) {
		var err error
		if diff[path] == nil {
			payload, err = sjson.DeleteBytes(payload, path)
		} else {
			payload, err = sjson.SetBytes(payload, path, diff[path])
		}
		if err != nil {
			return nil, fmt.Errorf("patch '%s': %w", path, err)
		}
	}

	row, err := newRow(id, payload)
	if err != nil {
		return nil, err
	}

	keys, err := t.indexKeys(row, old)
	if err != nil {
		return nil, err
	}

	t.removeKeys(old)
	for name, key := range keys {
		t.Indexes[name].put(key, id)
	}
	t.rows.ReplaceOrInsert(row)

	return row, nil
}

func (t *Table) Delete(id index.RowID) (*Row, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.journal == nil {
		return nil, ErrTableClosed
	}

	row, err := t.deleteRow(id)
	if err != nil {
		return nil, err
	}

	err = t.persist(commandRemove, &removePayload{ID: id})
	if err != nil {
		return nil, err
	}

	return row, nil
}

func (t *Table) deleteRow(id index.RowID) (*Row, error) {
	row, ok := t.rows.Delete(&Row{ID: id})
	if !ok {
		return nil, fmt.Errorf("row %d: %w", id, ErrRowNotFound)
	}
	t.removeKeys(row)
	return row, nil
}

// Truncate removes every row and clears every index. Row ids are not
// reused.
func (t *Table) Truncate() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.journal == nil {
		return ErrTableClosed
	}

	t.truncate()

	return t.persist(commandTruncate, struct{}{})
}

func (t *Table) truncate() {
	t.rows.Clear(false)
	for _, idx := range t.Indexes {
		idx.Clear()
	}
}

func (t *Table) indexNames() []string {
	names := make([]string, 0, len(t.Indexes))
	for name := range t.Indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
