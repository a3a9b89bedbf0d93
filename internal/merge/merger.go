// Package merge runs the coordinator's single subscription to the
// partial-results channel, folding every worker's output into the global
// index and clearing pending-set entries as they arrive.
package merge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/broker"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/index"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/pending"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/resilience"
)

// Merger owns the one subscription to the partial-results channel for the
// lifetime of the coordinator process.
type Merger struct {
	broker  broker.Broker
	index   *index.Index
	pending *pending.Set
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Merger writing into idx and clearing docIds from pendingSet.
func New(b broker.Broker, idx *index.Index, pendingSet *pending.Set, m *metrics.Metrics) *Merger {
	return &Merger{
		broker:  b,
		index:   idx,
		pending: pendingSet,
		metrics: m,
		logger:  slog.Default().With("component", "merger"),
	}
}

// Run subscribes to the partial-results channel and processes messages
// until ctx is cancelled. A dropped subscription is not a reason to stop the
// coordinator, so Run resubscribes instead of returning: after a failed
// subscription it first pings the broker, retrying the ping with
// exponential backoff (up to three attempts), then subscribes again; a
// subscription that ends without an error is resubscribed immediately.
func (m *Merger) Run(ctx context.Context) error {
	m.logger.Info("merger starting")
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := m.subscribeAndConsume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			m.logger.Warn("subscription ended, resubscribing", "error", err)
			retryErr := resilience.Retry(ctx, "merger-resubscribe", resilience.RetryConfig{}, func() error {
				return m.broker.Ping(ctx)
			})
			if retryErr != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

func (m *Merger) subscribeAndConsume(ctx context.Context) error {
	sub, err := m.broker.SubscribePartials(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		result, ok, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			m.logger.Error("failed to decode partial result", "error", err)
			if m.metrics != nil {
				m.metrics.MergeDecodeErrorsTotal.Inc()
			}
			continue
		}
		if !ok {
			return nil
		}
		m.applyPartial(result)
	}
}

func (m *Merger) applyPartial(result broker.PartialIndexResult) {
	start := time.Now()
	for term, byDoc := range result.Partial {
		freq, ok := byDoc[result.DocID]
		if !ok {
			continue
		}
		m.index.Merge(term, result.DocID, freq)
	}
	m.pending.Remove(result.DocID)
	if m.metrics != nil {
		m.metrics.PartialsMergedTotal.Inc()
		m.metrics.MergeDuration.Observe(time.Since(start).Seconds())
		m.metrics.IndexTermsTotal.Set(float64(m.index.TermCount()))
		m.metrics.DocsPendingTotal.Set(float64(m.pending.Len()))
	}
	m.logger.Debug("partial result merged", "doc_id", result.DocID, "worker_id", result.WorkerID, "terms", len(result.Partial))
}
