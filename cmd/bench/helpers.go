package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fulldump/rowindex/bootstrap"
	"github.com/fulldump/rowindex/configuration"
)

type JSON = map[string]any

var client = &http.Client{
	Transport: &http.Transport{
		MaxConnsPerHost:     1024,
		MaxIdleConnsPerHost: 1024,
		MaxIdleConns:        1024,
	},
}

func Parallel(workers int, f func(worker int)) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			f(worker)
		}(i)
	}
	wg.Wait()
}

func TempDir() (string, func()) {
	dir, err := os.MkdirTemp("", "rowindex_bench_*")
	if err != nil {
		panic("Could not create temp directory: " + err.Error())
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

// Post sends body to url and fails the benchmark on any non 2xx answer.
func Post(url string, body io.Reader) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		fmt.Println("ERROR: new request:", err.Error())
		os.Exit(3)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("ERROR: do request:", err.Error())
		os.Exit(4)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		fmt.Println("ERROR: bad status:", resp.Status)
		os.Exit(5)
	}
}

func PostJSON(url string, body any) {
	payload, _ := json.Marshal(body)
	Post(url, bytes.NewReader(payload))
}

func CreateTable(base string) string {

	name := "table-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	PostJSON(base+"/v1/tables", JSON{"name": name})

	return name
}

// Preload inserts c.N rows {"n": i, "worker": i % workers} through one
// stream.
func Preload(c Config, tableName string) {
	r, w := io.Pipe()

	encoder := json.NewEncoder(w)
	go func() {
		for i := int64(0); i < c.N; i++ {
			encoder.Encode(JSON{
				"n":      i,
				"worker": i % int64(c.Workers),
			})
		}
		w.Close()
	}()

	Post(c.Base+"/v1/tables/"+tableName+":insert", r)
}

func CreateServer(c *Config) (dir string, start, stop func()) {
	dir, cleanup := TempDir()
	cleanups = append(cleanups, cleanup)

	conf := configuration.Default()
	conf.Dir = dir
	conf.EnableCompression = false
	c.Base = "http://" + conf.HttpAddr

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	start, stop, err := bootstrap.Bootstrap(conf, logger)
	if err != nil {
		panic(err)
	}
	go start()
	WaitReady(c.Base)

	return dir, start, stop
}

// WaitReady polls the server until the database is operating.
func WaitReady(base string) {
	for i := 0; i < 100; i++ {
		resp, err := client.Get(base + "/v1/tables")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	fmt.Println("ERROR: server not ready")
	os.Exit(2)
}

func Report(action string, n int64, took time.Duration) {
	fmt.Println(action+":", n)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f rows/sec\n", float64(n)/took.Seconds())
}
