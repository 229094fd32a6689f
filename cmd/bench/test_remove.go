package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fulldump/rowindex/table"
)

func TestRemove(c Config) {

	createServer := c.Base == ""

	var stop func()
	var dataDir string
	if createServer {
		dataDir, _, stop = CreateServer(&c)
	}

	tableName := CreateTable(c.Base)
	PostJSON(c.Base+"/v1/tables/"+tableName+":createIndex", JSON{
		"name":   "by-worker",
		"fields": []string{"worker"},
	})

	fmt.Println("Preload rows...")
	Preload(c, tableName)

	removeURL := fmt.Sprintf("%s/v1/tables/%s:remove", c.Base, tableName)

	t0 := time.Now()
	Parallel(c.Workers, func(worker int) {
		// Remove all rows belonging to this worker
		PostJSON(removeURL, JSON{
			"filter": JSON{"worker": worker},
		})
	})

	Report("removed", c.N, time.Since(t0))

	if !createServer {
		return
	}

	stop() // Stop the server, tables are snapshotted

	t1 := time.Now()
	t, err := table.OpenTable(dataDir, tableName, slog.Default())
	if err != nil {
		fmt.Println("ERROR: open table:", err.Error())
		return
	}
	defer t.Close()
	Report("open rows", int64(t.Len()), time.Since(t1))
}
