package main

import (
	"bufio"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

func TestInsert(c Config) {

	if c.Base == "" {
		_, _, stop := CreateServer(&c)
		defer stop()
	}

	tableName := CreateTable(c.Base)
	PostJSON(c.Base+"/v1/tables/"+tableName+":createIndex", JSON{
		"name":   "by-n",
		"fields": []string{"n"},
		"unique": true,
	})

	items := c.N

	t0 := time.Now()
	Parallel(c.Workers, func(worker int) {

		r, w := io.Pipe()

		wb := bufio.NewWriterSize(w, 1*1024*1024)

		go func() {
			for {
				n := atomic.AddInt64(&items, -1)
				if n < 0 {
					break
				}
				fmt.Fprintf(wb, "{\"n\":%d,\"worker\":%d}\n", n, worker)
			}
			wb.Flush()
			w.Close()
		}()

		Post(c.Base+"/v1/tables/"+tableName+":insert", r)
	})

	Report("inserted", c.N, time.Since(t0))
}
