// Package status composes live worker heartbeats and queue depth into the
// records the /workers/status/ endpoint reports.
package status

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/broker"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/resilience"
)

// WorkerRecord is one worker's composed status.
type WorkerRecord struct {
	WorkerID     string
	CPUPercent   float64
	RAMPercent   float64
	QueueLength  int64
	TTLRemaining time.Duration
}

// Aggregator lists live workers by reading their heartbeat and queue keys.
type Aggregator struct {
	broker            broker.Broker
	heartbeatInterval time.Duration
	callTimeout       time.Duration
	metrics           *metrics.Metrics
	logger            *slog.Logger
}

// New creates an Aggregator backed by b. heartbeatInterval is the worker
// heartbeat period configured cluster-wide; since a worker_status key's TTL
// is set to 3x that interval (see worker.Runtime's heartbeat loop), its TTL
// remaining lets ListWorkers derive how long ago a worker last reported in
// without the status payload itself carrying a timestamp. callTimeout
// bounds each broker call independent of the request's own deadline. m may
// be nil, disabling metrics recording.
func New(b broker.Broker, heartbeatInterval, callTimeout time.Duration, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		broker:            b,
		heartbeatInterval: heartbeatInterval,
		callTimeout:       callTimeout,
		metrics:           m,
		logger:            slog.Default().With("component", "status-aggregator"),
	}
}

// ListWorkers enumerates worker_status:* keys and returns the composed
// records in lexicographic workerId order. A key that has expired or whose
// value fails to decode between enumeration and read is silently omitted.
func (a *Aggregator) ListWorkers(ctx context.Context) ([]WorkerRecord, error) {
	var keys []string
	err := resilience.WithTimeout(ctx, a.callTimeout, "list-worker-status-keys", func(ctx context.Context) error {
		var err error
		keys, err = a.broker.ListWorkerStatusKeys(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	records := make([]WorkerRecord, 0, len(keys))
	for _, key := range keys {
		workerID := broker.WorkerIDFromStatusKey(key)
		if workerID == "" {
			continue
		}
		var heartbeat *broker.WorkerStatus
		err := resilience.WithTimeout(ctx, a.callTimeout, "get-worker-status", func(ctx context.Context) error {
			var err error
			heartbeat, err = a.broker.GetWorkerStatus(ctx, workerID)
			return err
		})
		if err != nil || heartbeat == nil {
			a.logger.Debug("skipping worker with missing or malformed status", "worker_id", workerID)
			continue
		}
		var ttl time.Duration
		err = resilience.WithTimeout(ctx, a.callTimeout, "ttl", func(ctx context.Context) error {
			var err error
			ttl, err = a.broker.TTL(ctx, key)
			return err
		})
		if err != nil {
			a.logger.Debug("skipping worker with unreadable ttl", "worker_id", workerID)
			continue
		}
		var queueLen int64
		err = resilience.WithTimeout(ctx, a.callTimeout, "queue-length", func(ctx context.Context) error {
			var err error
			queueLen, err = a.broker.QueueLength(ctx, workerID)
			return err
		})
		if err != nil {
			a.logger.Debug("skipping worker with unreadable queue length", "worker_id", workerID)
			continue
		}
		records = append(records, WorkerRecord{
			WorkerID:     workerID,
			CPUPercent:   heartbeat.CPUPercent,
			RAMPercent:   heartbeat.RAMPercent,
			QueueLength:  queueLen,
			TTLRemaining: ttl,
		})
		if a.metrics != nil {
			a.metrics.WorkerQueueLength.WithLabelValues(workerID).Set(float64(queueLen))
			age := 3*a.heartbeatInterval - ttl
			if age < 0 {
				age = 0
			}
			a.metrics.HeartbeatAge.WithLabelValues(workerID).Set(age.Seconds())
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].WorkerID < records[j].WorkerID })
	return records, nil
}
