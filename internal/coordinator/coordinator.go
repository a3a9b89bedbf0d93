package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/broker"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/dispatch"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/index"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/merge"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/pending"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/query"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/status"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/metrics"
)

// Coordinator owns every C9-managed component and the HTTP server that
// exposes them.
type Coordinator struct {
	cfg     *config.Config
	broker  broker.Broker
	index   *index.Index
	pending *pending.Set
	merger  *merge.Merger
	server  *http.Server
	logger  *slog.Logger
}

// Boot connects to the broker (retrying with exponential backoff up to the
// configured cap), loads any existing snapshot, and wires every component.
// It does not start serving requests or the merger loop; call Run for that.
func Boot(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Coordinator, error) {
	logger := slog.Default().With("component", "coordinator")

	b, err := broker.Connect(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}

	idx := index.New()
	if err := idx.Load(cfg.Indexing.IndexStoragePath); err != nil {
		return nil, fmt.Errorf("loading index snapshot: %w", err)
	}

	pendingSet := pending.New()
	dispatcher := dispatch.New(b, pendingSet, cfg.Redis.CallTimeout, m)
	queryEngine := query.New(idx, cfg.Indexing.Language, m)
	statusAggregator := status.New(b, cfg.Worker.HeartbeatInterval, cfg.Redis.CallTimeout, m)
	merger := merge.New(b, idx, pendingSet, m)

	checker := health.NewChecker()
	checker.Register("broker", func(ctx context.Context) health.ComponentHealth {
		if err := b.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	handler := NewHandler(dispatcher, queryEngine, statusAggregator, idx, pendingSet,
		cfg.Indexing.LocalUploadsPath, cfg.Indexing.IndexStoragePath)
	router := NewRouter(handler, checker, m, cfg.Server.RequestTimeout)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Coordinator{
		cfg:     cfg,
		broker:  b,
		index:   idx,
		pending: pendingSet,
		merger:  merger,
		server:  server,
		logger:  logger,
	}, nil
}

// Run starts the merger's background subscription and serves HTTP until ctx
// is cancelled, then shuts both down gracefully. The merger loop, the HTTP
// server, and the shutdown watcher run as a group: the first one to fail
// cancels the group's context, so a merger death takes the server down with
// it instead of leaving the coordinator serving against a dead index feed.
func (c *Coordinator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.merger.Run(gctx)
	})

	g.Go(func() error {
		c.logger.Info("coordinator serving", "addr", c.server.Addr)
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("coordinator shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := c.server.Shutdown(shutdownCtx); err != nil {
			c.logger.Error("server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
