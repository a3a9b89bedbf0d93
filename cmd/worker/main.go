// Command worker starts a single C3 worker process.
//
// A worker pulls document tasks off its own broker queue, normalizes and
// tokenizes the content, publishes a partial term-frequency result, and
// reports CPU/RAM usage on a TTL'd heartbeat key. Any number of worker
// processes can run concurrently against the same broker; the dispatcher
// discovers them purely through their heartbeats.
//
// Usage:
//
//	go run ./cmd/worker [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/broker"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/worker"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := broker.Connect(ctx, cfg.Redis, slog.Default().With("component", "worker-boot"))
	if err != nil {
		slog.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}

	rt := worker.New(b, cfg.Worker.IDPrefix, cfg.Indexing.Language, cfg.Worker.HeartbeatInterval)
	slog.Info("starting worker", "worker_id", rt.ID(), "redis_addr", cfg.Redis.Addr())

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("worker stopped", "worker_id", rt.ID())
}
