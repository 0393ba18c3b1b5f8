// Command fishnet runs a chess-analysis client: it acquires batches of
// positions from a coordinator, hands them to a pool of local workers,
// and reports results back, pacing its own acquisition against the
// coordinator's configured backlog targets.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fishnet/internal/api"
	"fishnet/internal/config"
	"fishnet/internal/logger"
	"fishnet/internal/metrics"
	"fishnet/internal/queue"
	"fishnet/internal/web"
	"fishnet/internal/workerpool"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "fishnet: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLoggerFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fishnet: logger init: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var apiClient api.ApiStub
	if cfg.Fake {
		log.Info("running against an in-process fake coordinator")
		apiClient = api.NewFakeAPI()
	} else {
		apiClient = api.NewClient(cfg.APIBaseURL, cfg.APIToken, log)
	}

	stub, actor := queue.NewQueue(cfg.Cores, apiClient, queue.ActorConfig{
		Endpoint: cfg.Endpoint,
		Backlog:  cfg.Backlog,
		Log:      log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received, draining queue")
		stub.ShutdownSoon()
		cancel()
	}()

	go actor.Run(ctx)

	pool := workerpool.NewPool("local", cfg.Cores, stub, workerpool.NewSimulatedEngine(0), log)
	pool.Start()

	registry := metrics.Init()
	webServer := web.NewServer(cfg.WebAddr, stub, registry)
	go func() {
		if err := webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("web server stopped", logger.Field{Key: "error", Value: err.Error()})
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = webServer.Shutdown(shutdownCtx)

	pool.Stop()
	stub.Shutdown()

	log.Info("fishnet stopped")
}
