package broker

import (
	"context"
	"sync"
	"time"
)

// Fake is an in-memory Broker for unit tests that exercise dispatch, merge,
// worker, and status logic without a live Redis instance.
type Fake struct {
	mu       sync.Mutex
	queues   map[string][]DocumentTask
	statuses map[string]fakeStatus
	subs     []*fakeSubscription
}

type fakeStatus struct {
	status    WorkerStatus
	expiresAt time.Time
}

// NewFake returns an empty Fake broker.
func NewFake() *Fake {
	return &Fake{
		queues:   make(map[string][]DocumentTask),
		statuses: make(map[string]fakeStatus),
	}
}

func (f *Fake) EnqueueTask(_ context.Context, workerID string, task DocumentTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[workerID] = append(f.queues[workerID], task)
	return nil
}

func (f *Fake) DequeueTask(_ context.Context, workerID string, _ time.Duration) (*DocumentTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.queues[workerID]
	if len(q) == 0 {
		return nil, nil
	}
	task := q[0]
	f.queues[workerID] = q[1:]
	return &task, nil
}

func (f *Fake) QueueLength(_ context.Context, workerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.queues[workerID])), nil
}

func (f *Fake) PublishPartial(_ context.Context, result PartialIndexResult) error {
	f.mu.Lock()
	subs := append([]*fakeSubscription(nil), f.subs...)
	f.mu.Unlock()
	for _, sub := range subs {
		sub.deliver(result)
	}
	return nil
}

func (f *Fake) SubscribePartials(_ context.Context) (Subscription, error) {
	sub := &fakeSubscription{ch: make(chan PartialIndexResult, 64)}
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub, nil
}

func (f *Fake) SetWorkerStatus(_ context.Context, workerID string, status WorkerStatus, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[workerID] = fakeStatus{status: status, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (f *Fake) GetWorkerStatus(_ context.Context, workerID string) (*WorkerStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.statuses[workerID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	status := entry.status
	return &status, nil
}

func (f *Fake) ListWorkerStatusKeys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	keys := make([]string, 0, len(f.statuses))
	for workerID, entry := range f.statuses {
		if now.After(entry.expiresAt) {
			continue
		}
		keys = append(keys, WorkerStatusKey(workerID))
	}
	return keys, nil
}

func (f *Fake) TTL(_ context.Context, key string) (time.Duration, error) {
	workerID := WorkerIDFromStatusKey(key)
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.statuses[workerID]
	if !ok {
		return 0, nil
	}
	remaining := time.Until(entry.expiresAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (f *Fake) Ping(_ context.Context) error {
	return nil
}

// SubscriberCount returns the number of live subscriptions, for tests that
// need to wait until a background consumer has subscribed.
func (f *Fake) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, sub := range f.subs {
		sub.mu.Lock()
		if !sub.closed {
			count++
		}
		sub.mu.Unlock()
	}
	return count
}

type fakeSubscription struct {
	mu     sync.Mutex
	ch     chan PartialIndexResult
	closed bool
}

func (s *fakeSubscription) deliver(result PartialIndexResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- result:
	default:
	}
}

func (s *fakeSubscription) Next(ctx context.Context) (PartialIndexResult, bool, error) {
	select {
	case result, ok := <-s.ch:
		if !ok {
			return PartialIndexResult{}, false, nil
		}
		return result, true, nil
	case <-ctx.Done():
		return PartialIndexResult{}, false, ctx.Err()
	}
}

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

var _ Broker = (*Fake)(nil)
