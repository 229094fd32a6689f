package database

import (
	"errors"
	"os"
	"sync"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/rowindex/table"
)

func Environment(f func(dir string)) {
	dir, err := os.MkdirTemp("", "rowindex-database-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	f(dir)
}

func TestDatabase_Lifecycle(t *testing.T) {
	Environment(func(dir string) {

		db := NewDatabase(&Config{Dir: dir, SnapshotOnStop: true}, nil)
		AssertEqual(db.GetStatus(), StatusOpening)
		AssertNil(db.Load())
		AssertEqual(db.GetStatus(), StatusOperating)

		people, err := db.CreateTable("people")
		AssertNil(err)
		people.CreateIndex(&table.IndexOptions{Name: "by-name", Fields: []string{"name"}})
		people.Insert(map[string]any{"name": "Alice"})
		people.Insert(map[string]any{"name": "Bob"})

		_, err = db.CreateTable("people")
		AssertTrue(errors.Is(err, ErrTableAlreadyExists))

		AssertNil(db.Stop())
		AssertEqual(db.GetStatus(), StatusClosing)
		AssertNil(db.Stop())

		// Reload
		db = NewDatabase(&Config{Dir: dir}, nil)
		AssertNil(db.Load())
		defer db.Stop()

		people, err = db.GetTable("people")
		AssertNil(err)
		AssertEqual(people.Len(), 2)
		byName, err := people.GetIndex("by-name")
		AssertNil(err)
		AssertEqual(byName.Get("Bob"), []int64{2})
	})
}

func TestDatabase_DropTable(t *testing.T) {
	Environment(func(dir string) {

		db := NewDatabase(&Config{Dir: dir}, nil)
		db.Load()
		defer db.Stop()

		db.CreateTable("people")
		AssertEqual(len(db.Tables()), 1)

		AssertNil(db.DropTable("people"))
		AssertEqual(len(db.Tables()), 0)
		AssertTrue(errors.Is(db.DropTable("people"), ErrTableNotFound))

		entries, _ := os.ReadDir(dir)
		AssertEqual(len(entries), 0)
	})
}

func TestDatabase_InvalidName(t *testing.T) {
	Environment(func(dir string) {

		db := NewDatabase(&Config{Dir: dir}, nil)
		db.Load()
		defer db.Stop()

		for _, name := range []string{"", "..", "a/b", `a\b`} {
			_, err := db.CreateTable(name)
			AssertTrue(errors.Is(err, ErrInvalidTableName))
		}
	})
}

func TestDatabase_ConcurrentStop(t *testing.T) {
	Environment(func(dir string) {

		db := NewDatabase(&Config{Dir: dir, SnapshotOnStop: true}, nil)
		AssertNil(db.Load())
		db.CreateTable("people")

		wg := &sync.WaitGroup{}
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				db.Stop()
			}()
		}
		wg.Wait()

		AssertEqual(db.GetStatus(), StatusClosing)
		AssertNil(db.Stop())

		_, err := os.Stat(dir + "/people.snapshot")
		AssertNil(err)
	})
}
