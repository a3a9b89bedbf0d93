// Package dispatch selects a worker for each document task by composite
// load score and drives the indexing trigger operation that scans a
// directory and hands every file to the dispatcher.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/broker"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/pending"
	apperrors "github.com/Adithya-Monish-Kumar-K/distindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/tracing"
)

// Weights of the composite load score. One queued task outweighs a 10-point
// swing in either resource percentage, which prevents pile-up on a single
// worker under bursty dispatch.
const (
	queueLengthWeight = 10.0
	cpuWeight         = 0.5
	ramWeight         = 0.3
)

// Dispatcher selects a worker per task using live heartbeats and queue
// depth, and exposes the indexing-trigger operation that scans a directory
// of documents and dispatches each one.
type Dispatcher struct {
	broker      broker.Broker
	pending     *pending.Set
	breaker     *resilience.CircuitBreaker
	callTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates a Dispatcher. pendingSet records docIds between dispatch and
// merge for status reporting. callTimeout bounds each individual broker
// call the dispatcher makes, independent of the request's own deadline, so
// one stalled broker round trip can't silently consume the whole request
// budget. m may be nil, disabling metrics recording.
func New(b broker.Broker, pendingSet *pending.Set, callTimeout time.Duration, m *metrics.Metrics) *Dispatcher {
	d := &Dispatcher{
		broker:      b,
		pending:     pendingSet,
		callTimeout: callTimeout,
		metrics:     m,
		logger:      slog.Default().With("component", "dispatcher"),
	}
	d.breaker = resilience.NewCircuitBreaker("broker", resilience.CircuitBreakerConfig{
		OnStateChange: d.onBreakerStateChange,
	})
	return d
}

func (d *Dispatcher) onBreakerStateChange(name string, from, to resilience.State) {
	d.logger.Info("circuit breaker state changed", "name", name, "from", from, "to", to)
	if d.metrics != nil {
		d.metrics.CircuitBreakerState.WithLabelValues(name).Set(circuitStateValue(to))
	}
}

// circuitStateValue maps a resilience.State to the numeric encoding
// metrics.CircuitBreakerState documents: 0=closed, 1=open, 2=half-open.
func circuitStateValue(s resilience.State) float64 {
	switch s {
	case resilience.StateOpen:
		return 1
	case resilience.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

type candidate struct {
	workerID string
	score    float64
}

// Dispatch picks the worker with the minimum composite load score and
// enqueues task to it, returning the chosen workerId.
func (d *Dispatcher) Dispatch(ctx context.Context, task broker.DocumentTask) (string, error) {
	ctx, span := tracing.StartChildSpan(ctx, "dispatch")
	span.SetAttr("doc_id", task.DocID)
	defer span.End()

	start := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
		}
	}()

	var statusKeys []string
	err := resilience.WithTimeout(ctx, d.callTimeout, "list-worker-status-keys", func(ctx context.Context) error {
		var err error
		statusKeys, err = d.broker.ListWorkerStatusKeys(ctx)
		return err
	})
	if err != nil {
		span.SetError(err)
		d.failDispatch("broker_unavailable")
		return "", apperrors.Newf(apperrors.ErrBrokerUnavailable, http.StatusServiceUnavailable, "listing worker heartbeats: %v", err)
	}
	if len(statusKeys) == 0 {
		noWorkersErr := apperrors.New(apperrors.ErrNoWorkersAvailable, http.StatusServiceUnavailable, "no worker heartbeats present")
		span.SetError(noWorkersErr)
		d.failDispatch("no_workers")
		return "", noWorkersErr
	}

	candidates := make([]candidate, 0, len(statusKeys))
	for _, key := range statusKeys {
		workerID := broker.WorkerIDFromStatusKey(key)
		if workerID == "" {
			continue
		}
		var status *broker.WorkerStatus
		err := resilience.WithTimeout(ctx, d.callTimeout, "get-worker-status", func(ctx context.Context) error {
			var err error
			status, err = d.broker.GetWorkerStatus(ctx, workerID)
			return err
		})
		if err != nil || status == nil {
			// Heartbeat expired between enumeration and fetch; skip it.
			continue
		}
		var queueLen int64
		err = resilience.WithTimeout(ctx, d.callTimeout, "queue-length", func(ctx context.Context) error {
			var err error
			queueLen, err = d.broker.QueueLength(ctx, workerID)
			return err
		})
		if err != nil {
			span.SetError(err)
			d.failDispatch("broker_unavailable")
			return "", apperrors.Newf(apperrors.ErrBrokerUnavailable, http.StatusServiceUnavailable, "reading queue length for %s: %v", workerID, err)
		}
		score := float64(queueLen)*queueLengthWeight + status.CPUPercent*cpuWeight + status.RAMPercent*ramWeight
		candidates = append(candidates, candidate{workerID: workerID, score: score})
	}
	if len(candidates) == 0 {
		noWorkersErr := apperrors.New(apperrors.ErrNoWorkersAvailable, http.StatusServiceUnavailable, "no live workers found")
		span.SetError(noWorkersErr)
		d.failDispatch("no_workers")
		return "", noWorkersErr
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].workerID < candidates[j].workerID
	})
	chosen := candidates[0].workerID

	enqueueErr := d.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, d.callTimeout, "enqueue-task", func(ctx context.Context) error {
			return d.broker.EnqueueTask(ctx, chosen, task)
		})
	})
	if enqueueErr != nil {
		span.SetError(enqueueErr)
		if errors.Is(enqueueErr, resilience.ErrCircuitOpen) {
			d.failDispatch("circuit_open")
			return "", apperrors.New(apperrors.ErrBrokerUnavailable, http.StatusServiceUnavailable, "broker circuit open")
		}
		d.failDispatch("broker_unavailable")
		return "", apperrors.Newf(apperrors.ErrBrokerUnavailable, http.StatusServiceUnavailable, "enqueueing task: %v", enqueueErr)
	}

	span.SetAttr("chosen_worker", chosen)
	span.SetAttr("score", candidates[0].score)
	if d.metrics != nil {
		d.metrics.TasksDispatchedTotal.WithLabelValues(chosen).Inc()
	}
	d.logger.Info("task dispatched", "doc_id", task.DocID, "worker_id", chosen, "score", candidates[0].score)
	return chosen, nil
}

func (d *Dispatcher) failDispatch(reason string) {
	if d.metrics != nil {
		d.metrics.TasksFailedTotal.WithLabelValues(reason).Inc()
	}
}

// FailedFile describes one file the indexing trigger could not dispatch.
type FailedFile struct {
	Name   string
	Reason string
}

// TriggerReport is the outcome of one indexing-trigger run.
type TriggerReport struct {
	SuccessfulDispatches []string
	FailedFiles          []FailedFile
	PendingCount         int
}

// TriggerLocalIndexing scans dir non-recursively for .txt files, dispatches
// each non-empty one, and reports what happened. A read or dispatch failure
// for one file does not abort the scan of the rest.
func (d *Dispatcher) TriggerLocalIndexing(ctx context.Context, dir string) (TriggerReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return TriggerReport{}, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "reading uploads directory: %v", err)
	}

	var statusKeys []string
	err = resilience.WithTimeout(ctx, d.callTimeout, "list-worker-status-keys", func(ctx context.Context) error {
		var err error
		statusKeys, err = d.broker.ListWorkerStatusKeys(ctx)
		return err
	})
	if err != nil {
		return TriggerReport{}, apperrors.Newf(apperrors.ErrBrokerUnavailable, http.StatusServiceUnavailable, "listing worker heartbeats: %v", err)
	}
	if len(statusKeys) == 0 {
		return TriggerReport{}, apperrors.New(apperrors.ErrNoWorkersAvailable, http.StatusServiceUnavailable, "no live workers available")
	}

	report := TriggerReport{
		SuccessfulDispatches: make([]string, 0),
		FailedFiles:          make([]FailedFile, 0),
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		docID := entry.Name()
		content, err := os.ReadFile(filepath.Join(dir, docID))
		if err != nil {
			report.FailedFiles = append(report.FailedFiles, FailedFile{Name: docID, Reason: err.Error()})
			continue
		}
		if strings.TrimSpace(string(content)) == "" {
			report.FailedFiles = append(report.FailedFiles, FailedFile{Name: docID, Reason: "empty or whitespace-only"})
			continue
		}

		task := broker.DocumentTask{DocID: docID, Content: string(content)}
		if _, err := d.Dispatch(ctx, task); err != nil {
			report.FailedFiles = append(report.FailedFiles, FailedFile{Name: docID, Reason: err.Error()})
			continue
		}
		d.pending.Add(docID)
		report.SuccessfulDispatches = append(report.SuccessfulDispatches, docID)
	}
	report.PendingCount = d.pending.Len()
	return report, nil
}
