package table

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/fulldump/rowindex/index"
)

type snapshotData struct {
	NextID  index.RowID     `msgpack:"next_id"`
	Rows    []snapshotRow   `msgpack:"rows"`
	Indexes []snapshotIndex `msgpack:"indexes"`
}

type snapshotRow struct {
	ID      index.RowID `msgpack:"id"`
	Payload []byte      `msgpack:"payload"`
}

type snapshotIndex struct {
	Options *IndexOptions `msgpack:"options"`
	// Entries is nil for variants that cannot be serialized, those are
	// rebuilt from rows.
	Entries []index.Entry `msgpack:"entries"`
}

func (t *Table) snapshotFilename() string {
	return strings.TrimSuffix(t.filename, JournalExtension) + SnapshotExtension
}

// Snapshot writes the whole table to an lz4 compressed msgpack file and
// empties the journal.
func (t *Table) Snapshot() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.journal == nil {
		return ErrTableClosed
	}

	data := &snapshotData{
		NextID: t.nextID,
		Rows:   make([]snapshotRow, 0, t.rows.Len()),
	}
	t.rows.Ascend(func(row *Row) bool {
		data.Rows = append(data.Rows, snapshotRow{ID: row.ID, Payload: row.Payload})
		return true
	})

	for _, name := range t.indexNames() {
		idx := t.Indexes[name]
		entries, err := idx.Serialize()
		if errors.Is(err, index.ErrNotSupported) {
			t.logger.Debug("index will be rebuilt on load", "index", name, "reason", err.Error())
			entries = nil
		} else if err != nil {
			return fmt.Errorf("serialize index '%s': %w", name, err)
		}
		data.Indexes = append(data.Indexes, snapshotIndex{
			Options: idx.Options,
			Entries: entries,
		})
	}

	tmp := t.snapshotFilename() + ".tmp"
	err := writeSnapshot(tmp, data)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	err = os.Rename(tmp, t.snapshotFilename())
	if err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}

	err = t.journal.Truncate(0)
	if err != nil {
		return fmt.Errorf("truncate journal: %w", err)
	}

	t.logger.Info("snapshot written",
		"rows", len(data.Rows),
		"indexes", len(data.Indexes))

	return nil
}

func writeSnapshot(filename string, data *snapshotData) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	zw := lz4.NewWriter(f)
	err = msgpack.NewEncoder(zw).Encode(data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	err = zw.Close()
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	return f.Sync()
}

func (t *Table) loadSnapshot() error {
	f, err := os.Open(t.snapshotFilename())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	data := &snapshotData{}
	err = msgpack.NewDecoder(lz4.NewReader(f)).Decode(data)
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	for _, r := range data.Rows {
		row, err := newRow(r.ID, r.Payload)
		if err != nil {
			return err
		}
		t.rows.ReplaceOrInsert(row)
	}
	t.nextID = data.NextID

	for _, s := range data.Indexes {
		if s.Entries == nil {
			_, err := t.createIndex(s.Options)
			if err != nil {
				return fmt.Errorf("rebuild index '%s': %w", s.Options.Name, err)
			}
			continue
		}

		idx, err := newIndex(s.Options)
		if err != nil {
			return err
		}
		for _, entry := range s.Entries {
			for _, id := range entry.RowIDs {
				idx.Add(entry.Key, id)
			}
		}
		t.Indexes[s.Options.Name] = idx
	}

	t.logger.Debug("snapshot loaded",
		"rows", len(data.Rows),
		"indexes", len(data.Indexes))

	return nil
}
