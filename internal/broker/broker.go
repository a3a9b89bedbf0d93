// Package broker exposes the minimal substrate the coordinator and workers
// share: per-worker task queues, a fan-in pub/sub results channel, and
// TTL'd worker heartbeat keys. It is the only place that encodes/decodes
// broker payloads to and from JSON.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/resilience"
)

const (
	// PartialResultsChannel is the pub/sub channel workers publish
	// PartialIndexResult payloads to and the coordinator's merger
	// subscribes to. Bit-exact — changing it breaks cross-version
	// compatibility.
	PartialResultsChannel = "idx_partial_results"

	taskQueueKeyPrefix    = "doc_processing_tasks:"
	workerStatusKeyPrefix = "worker_status:"
	workerStatusPattern   = "worker_status:*"
)

// TaskQueueKey returns the broker list key for a worker's task queue.
func TaskQueueKey(workerID string) string {
	return taskQueueKeyPrefix + workerID
}

// WorkerStatusKey returns the broker string key for a worker's heartbeat.
func WorkerStatusKey(workerID string) string {
	return workerStatusKeyPrefix + workerID
}

// WorkerIDFromStatusKey extracts the worker id from a worker_status:* key.
func WorkerIDFromStatusKey(key string) string {
	if len(key) <= len(workerStatusKeyPrefix) {
		return ""
	}
	return key[len(workerStatusKeyPrefix):]
}

// Broker is the capability interface the dispatcher, worker runtime, merger,
// and status aggregator depend on. It exists so those components can be
// tested against a fake instead of a live Redis instance.
type Broker interface {
	EnqueueTask(ctx context.Context, workerID string, task DocumentTask) error
	DequeueTask(ctx context.Context, workerID string, timeout time.Duration) (*DocumentTask, error)
	QueueLength(ctx context.Context, workerID string) (int64, error)
	PublishPartial(ctx context.Context, result PartialIndexResult) error
	SubscribePartials(ctx context.Context) (Subscription, error)
	SetWorkerStatus(ctx context.Context, workerID string, status WorkerStatus, ttl time.Duration) error
	GetWorkerStatus(ctx context.Context, workerID string) (*WorkerStatus, error)
	ListWorkerStatusKeys(ctx context.Context) ([]string, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Ping(ctx context.Context) error
}

// Subscription is a live pub/sub subscription to PartialResultsChannel.
type Subscription interface {
	// Next blocks until a partial result arrives, ctx is cancelled, or the
	// subscription is closed. ok is false when the subscription ended.
	Next(ctx context.Context) (PartialIndexResult, bool, error)
	Close() error
}

// RedisBroker implements Broker on top of pkg/redis.Client.
type RedisBroker struct {
	client *redis.Client
}

// New wraps a redis.Client as a Broker.
func New(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Connect dials the broker, retrying with exponential backoff until it
// succeeds or ctx is cancelled. Both the coordinator and every worker call
// this before they do anything else, since neither can make progress
// without a reachable broker.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*RedisBroker, error) {
	retryCfg := resilience.RetryConfig{
		InitialDelay: cfg.ConnectRetry,
		MaxDelay:     cfg.ConnectCap,
		Multiplier:   2.0,
	}
	for attempt := 1; ; attempt++ {
		client, err := redis.NewClient(cfg)
		if err == nil {
			return New(client), nil
		}
		logger.Warn("broker not reachable, retrying", "attempt", attempt, "error", err)
		delay := backoffDelay(attempt, retryCfg)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func backoffDelay(attempt int, cfg resilience.RetryConfig) time.Duration {
	delay := cfg.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
			break
		}
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return delay
}

func (b *RedisBroker) EnqueueTask(ctx context.Context, workerID string, task DocumentTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encoding task: %w", err)
	}
	return b.client.RPush(ctx, TaskQueueKey(workerID), string(payload))
}

func (b *RedisBroker) DequeueTask(ctx context.Context, workerID string, timeout time.Duration) (*DocumentTask, error) {
	payload, ok, err := b.client.BLPop(ctx, timeout, TaskQueueKey(workerID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var task DocumentTask
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return nil, fmt.Errorf("decoding task: %w", err)
	}
	return &task, nil
}

func (b *RedisBroker) QueueLength(ctx context.Context, workerID string) (int64, error) {
	return b.client.LLen(ctx, TaskQueueKey(workerID))
}

func (b *RedisBroker) PublishPartial(ctx context.Context, result PartialIndexResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding partial result: %w", err)
	}
	return b.client.Publish(ctx, PartialResultsChannel, string(payload))
}

func (b *RedisBroker) SubscribePartials(ctx context.Context) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, PartialResultsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", PartialResultsChannel, err)
	}
	return &redisSubscription{pubsub: pubsub}, nil
}

func (b *RedisBroker) SetWorkerStatus(ctx context.Context, workerID string, status WorkerStatus, ttl time.Duration) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding worker status: %w", err)
	}
	return b.client.SetWithTTL(ctx, WorkerStatusKey(workerID), string(payload), ttl)
}

func (b *RedisBroker) GetWorkerStatus(ctx context.Context, workerID string) (*WorkerStatus, error) {
	payload, err := b.client.Get(ctx, WorkerStatusKey(workerID))
	if err != nil {
		if redis.IsNilError(err) {
			return nil, nil
		}
		return nil, err
	}
	var status WorkerStatus
	if err := json.Unmarshal([]byte(payload), &status); err != nil {
		return nil, fmt.Errorf("decoding worker status: %w", err)
	}
	return &status, nil
}

func (b *RedisBroker) ListWorkerStatusKeys(ctx context.Context) ([]string, error) {
	return b.client.KeysMatching(ctx, workerStatusPattern)
}

func (b *RedisBroker) TTL(ctx context.Context, key string) (time.Duration, error) {
	return b.client.TTL(ctx, key)
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

type redisSubscription struct {
	pubsub *goredis.PubSub
}

func (s *redisSubscription) Next(ctx context.Context) (PartialIndexResult, bool, error) {
	select {
	case msg, ok := <-s.pubsub.Channel():
		if !ok {
			return PartialIndexResult{}, false, nil
		}
		var result PartialIndexResult
		if err := json.Unmarshal([]byte(msg.Payload), &result); err != nil {
			return PartialIndexResult{}, true, fmt.Errorf("decoding partial result: %w", err)
		}
		return result, true, nil
	case <-ctx.Done():
		return PartialIndexResult{}, false, ctx.Err()
	}
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
