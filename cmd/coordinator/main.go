// Command coordinator starts the C9 coordinator service.
//
// The coordinator accepts indexing-trigger and search requests over HTTP,
// dispatches document tasks to workers via the broker, merges partial
// results into the global index, and answers keyword searches against it.
//
// Usage:
//
//	go run ./cmd/coordinator [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/coordinator"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/metrics"
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
	slog.Info("starting coordinator service",
		"port", cfg.Server.Port,
		"redis_addr", cfg.Redis.Addr(),
		"language", cfg.Indexing.Language,
		"uploads_path", cfg.Indexing.LocalUploadsPath,
	)

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, "distindex-coordinator")
		defer func() {
			_ = shutdownMetrics(context.Background())
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := coordinator.Boot(ctx, cfg, m)
	if err != nil {
		slog.Error("failed to boot coordinator", "error", err)
		os.Exit(1)
	}

	if err := c.Run(ctx); err != nil {
		slog.Error("coordinator stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("coordinator service stopped")
}
