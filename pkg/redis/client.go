// Package redis provides a thin wrapper around go-redis/v9 exposing the
// exact substrate the coordinator/worker protocol needs: atomic list
// push/blocking-pop, publish/subscribe, TTL'd string keys, and pattern-based
// key enumeration. Values pass through as opaque strings; JSON encoding and
// decoding of broker payloads happens in internal/broker, not here.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
)

// Client wraps a go-redis client with the list/pubsub/TTL operations the
// broker-mediated protocol is built on.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a Redis client and verifies the connection with a PING.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Get returns the string value for the given key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// SetWithTTL stores a value with the given TTL.
func (c *Client) SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// TTL returns the remaining time-to-live for key. A negative duration with
// no error means the key has no TTL (-1) or does not exist (-2); an absent
// key is not reported as redis.Nil.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.rdb.TTL(ctx, key).Result()
}

// KeysMatching scans the keyspace for keys matching the glob pattern and
// returns them. Uses SCAN rather than KEYS so it never blocks the broker.
func (c *Client) KeysMatching(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning pattern %s: %w", pattern, err)
	}
	return keys, nil
}

// RPush appends a value to the list at key. Lists are the per-worker task
// queues; push order is the FIFO order a worker will dequeue in.
func (c *Client) RPush(ctx context.Context, key string, value string) error {
	return c.rdb.RPush(ctx, key, value).Err()
}

// BLPop performs a blocking left-pop with the given timeout. A zero-length
// result with no error indicates the timeout elapsed with no item.
func (c *Client) BLPop(ctx context.Context, timeout time.Duration, key string) (string, bool, error) {
	result, err := c.rdb.BLPop(ctx, timeout, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	// BLPop returns [key, value]; index 1 is the popped value.
	if len(result) < 2 {
		return "", false, nil
	}
	return result[1], true, nil
}

// LLen returns the length of the list at key.
func (c *Client) LLen(ctx context.Context, key string) (int64, error) {
	return c.rdb.LLen(ctx, key).Result()
}

// Publish publishes a payload to a pub/sub channel.
func (c *Client) Publish(ctx context.Context, channel string, payload string) error {
	return c.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe subscribes to a pub/sub channel and returns the underlying
// subscription. Callers read from Subscription.Channel() and must Close it
// when done.
func (c *Client) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channel)
}

// IsNilError reports whether err is a Redis nil (key-not-found) error.
func IsNilError(err error) bool {
	return err == redis.Nil
}

// Ping sends a PING to Redis and returns any error.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
