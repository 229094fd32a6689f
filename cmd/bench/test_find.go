package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

// TestFind runs c.N range scans of 100 keys over an indexed table.
func TestFind(c Config) {

	if c.Base == "" {
		_, _, stop := CreateServer(&c)
		defer stop()
	}

	tableName := CreateTable(c.Base)
	PostJSON(c.Base+"/v1/tables/"+tableName+":createIndex", JSON{
		"name":   "by-n",
		"fields": []string{"n"},
	})

	fmt.Println("Preload rows...")
	Preload(c, tableName)

	findURL := fmt.Sprintf("%s/v1/tables/%s:find", c.Base, tableName)

	queries := c.N
	t0 := time.Now()
	Parallel(c.Workers, func(worker int) {
		for {
			q := atomic.AddInt64(&queries, -1)
			if q < 0 {
				break
			}
			from := q % c.N
			PostJSON(findURL, JSON{
				"index": "by-n",
				"ranges": []JSON{
					{"from": from, "to": from + 100, "exclude_to": true},
				},
				"limit": 10,
			})
		}
	})

	Report("queries", c.N, time.Since(t0))
}
