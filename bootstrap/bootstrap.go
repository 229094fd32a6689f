package bootstrap

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fulldump/box"

	"github.com/fulldump/rowindex/api"
	"github.com/fulldump/rowindex/configuration"
	"github.com/fulldump/rowindex/database"
	"github.com/fulldump/rowindex/service"
)

var VERSION = "dev"

func Bootstrap(c *configuration.Configuration, logger *slog.Logger) (start, stop func(), err error) {

	db := database.NewDatabase(&database.Config{
		Dir:            c.Dir,
		SnapshotOnStop: c.SnapshotOnStop,
	}, logger)

	b := api.Build(service.NewService(db), VERSION)
	b.WithInterceptors(api.AccessLog(logger))
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.PrettyErrorInterceptor,
		api.InterceptorUnavailable(db),
		api.RecoverFromPanic,
	)

	s := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("listening", "addr", c.HttpAddr)

	stopOnce := &sync.Once{}
	stop = func() {
		stopOnce.Do(func() {
			err := db.Stop()
			if err != nil {
				logger.Error("stop database", "error", err.Error())
			}
			s.Shutdown(context.Background())
		})
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-signalChan
		logger.Info("signal received", "signal", sig.String())
		stop()
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Start()
			if err != nil {
				logger.Error("start database", "error", err.Error())
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				logger.Error("serve http", "error", err.Error())
			}
		}()

		wg.Wait()
	}

	return start, stop, nil
}
