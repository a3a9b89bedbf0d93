// Package worker implements the C3 worker runtime: a stable worker id, a
// task loop that normalizes documents and publishes partial results, and a
// heartbeat loop that reports CPU/RAM to the broker on a TTL'd key.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/broker"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/normalize"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
)

const dequeueTimeout = time.Second

// Runtime is one worker process: a stable id, a broker connection, and the
// two concurrent loops that make up its lifecycle.
type Runtime struct {
	id                string
	broker            broker.Broker
	language          config.Language
	heartbeatInterval time.Duration
	sampler           *sysSampler
	logger            *slog.Logger
}

// New builds a Runtime with a stable workerId derived from prefix, the
// local hostname, and this process's pid.
func New(b broker.Broker, idPrefix string, language config.Language, heartbeatInterval time.Duration) *Runtime {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}
	id := fmt.Sprintf("%s-%s-%d", idPrefix, hostname, os.Getpid())
	return &Runtime{
		id:                id,
		broker:            b,
		language:          language,
		heartbeatInterval: heartbeatInterval,
		sampler:           newSysSampler(),
		logger:            slog.Default().With("component", "worker", "worker_id", id),
	}
}

// ID returns this worker's stable id.
func (r *Runtime) ID() string {
	return r.id
}

// Run starts the task loop and heartbeat loop and blocks until ctx is
// cancelled or either loop returns a fatal error.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("worker starting")
	errCh := make(chan error, 2)
	go func() { errCh <- r.runTaskLoop(ctx) }()
	go func() { errCh <- r.runHeartbeatLoop(ctx) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (r *Runtime) runTaskLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		task, err := r.broker.DequeueTask(ctx, r.id, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("dequeue failed", "error", err)
			continue
		}
		if task == nil {
			continue // timeout elapsed, nothing queued
		}
		r.processTask(ctx, *task)
	}
}

func (r *Runtime) processTask(ctx context.Context, task broker.DocumentTask) {
	tokens, err := normalize.Normalize(task.Content, r.language)
	if err != nil {
		r.logger.Error("normalization failed", "doc_id", task.DocID, "error", err)
		return
	}

	freqs := make(map[string]int, len(tokens))
	for _, token := range tokens {
		freqs[token]++
	}

	result := broker.NewPartialIndexResult(r.id, task.DocID, freqs)
	if err := r.broker.PublishPartial(ctx, result); err != nil {
		r.logger.Error("publishing partial result failed, discarding", "doc_id", task.DocID, "error", err)
		return
	}
	r.logger.Info("document processed", "doc_id", task.DocID, "terms", len(freqs))
}

func (r *Runtime) runHeartbeatLoop(ctx context.Context) error {
	ttl := 3 * r.heartbeatInterval
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	r.beat(ctx, ttl)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.beat(ctx, ttl)
		}
	}
}

func (r *Runtime) beat(ctx context.Context, ttl time.Duration) {
	cpuPercent, ramPercent, err := r.sampler.Sample()
	if err != nil {
		r.logger.Error("sampling resource usage failed", "error", err)
		return
	}
	status := broker.WorkerStatus{CPUPercent: cpuPercent, RAMPercent: ramPercent}
	if err := r.broker.SetWorkerStatus(ctx, r.id, status, ttl); err != nil {
		r.logger.Error("heartbeat publish failed", "error", err)
	}
}
