package table

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"

	"github.com/fulldump/rowindex/index"
)

const (
	commandInsert    = "insert"
	commandPatch     = "patch"
	commandRemove    = "remove"
	commandTruncate  = "truncate"
	commandIndex     = "index"
	commandDropIndex = "drop_index"
)

type Command struct {
	Name      string         `json:"name"`
	Uuid      string         `json:"uuid"`
	Timestamp int64          `json:"timestamp"`
	Payload   jsontext.Value `json:"payload"`
}

type insertPayload struct {
	ID   index.RowID    `json:"id"`
	Data jsontext.Value `json:"data"`
}

type patchPayload struct {
	ID   index.RowID    `json:"id"`
	Diff map[string]any `json:"diff"`
}

type removePayload struct {
	ID index.RowID `json:"id"`
}

type dropIndexPayload struct {
	Name string `json:"name"`
}

// persist appends one command to the journal. Callers hold the write lock.
func (t *Table) persist(name string, payload any) error {
	data, err := json2.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json encode %s payload: %w", name, err)
	}

	command := &Command{
		Name:      name,
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		Payload:   data,
	}

	err = json2.MarshalEncode(t.encoder, command)
	if err != nil {
		return fmt.Errorf("json encode command: %w", err)
	}
	return nil
}

// replay applies the journal on top of the loaded snapshot. A torn tail
// (a crash in the middle of a write) is cut off so later appends land right
// after the last complete command.
func (t *Table) replay() error {
	f, err := os.Open(t.filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open journal for read: %w", err)
	}
	defer f.Close()

	decoder := jsontext.NewDecoder(f)
	valid := int64(0)
	torn := false
	for n := 0; ; n++ {
		command := &Command{}
		err := json2.UnmarshalDecode(decoder, command)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.logger.Warn("journal decode stopped",
				"command", n,
				"offset", valid,
				"error", err.Error())
			torn = true
			break
		}
		valid = decoder.InputOffset()

		err = t.apply(command)
		if err != nil {
			t.logger.Warn("journal command skipped",
				"command", n,
				"name", command.Name,
				"uuid", command.Uuid,
				"error", err.Error())
		}
	}

	if !torn {
		return nil
	}

	err = os.Truncate(t.filename, valid)
	if err != nil {
		return fmt.Errorf("truncate torn journal: %w", err)
	}
	if valid > 0 {
		err = appendNewline(t.filename)
		if err != nil {
			return fmt.Errorf("repair journal: %w", err)
		}
	}
	t.logger.Warn("journal torn tail removed", "offset", valid)

	return nil
}

func appendNewline(filename string) error {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	_, err = f.Write([]byte("\n"))
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (t *Table) apply(command *Command) error {
	switch command.Name {
	case commandInsert:
		p := &insertPayload{}
		if err := json2.Unmarshal(command.Payload, p); err != nil {
			return err
		}
		if _, exists := t.rows.Get(&Row{ID: p.ID}); exists {
			// already in the snapshot
			return nil
		}
		row, err := newRow(p.ID, p.Data)
		if err != nil {
			return err
		}
		return t.addRow(row)

	case commandPatch:
		p := &patchPayload{}
		if err := json2.Unmarshal(command.Payload, p); err != nil {
			return err
		}
		_, err := t.patchRow(p.ID, p.Diff)
		return err

	case commandRemove:
		p := &removePayload{}
		if err := json2.Unmarshal(command.Payload, p); err != nil {
			return err
		}
		_, err := t.deleteRow(p.ID)
		if errors.Is(err, ErrRowNotFound) {
			return nil
		}
		return err

	case commandTruncate:
		t.truncate()
		return nil

	case commandIndex:
		options := &IndexOptions{}
		if err := json2.Unmarshal(command.Payload, options); err != nil {
			return err
		}
		if _, exists := t.Indexes[options.Name]; exists {
			return nil
		}
		_, err := t.createIndex(options)
		return err

	case commandDropIndex:
		p := &dropIndexPayload{}
		if err := json2.Unmarshal(command.Payload, p); err != nil {
			return err
		}
		delete(t.Indexes, p.Name)
		return nil
	}

	return fmt.Errorf("unknown command '%s'", command.Name)
}
