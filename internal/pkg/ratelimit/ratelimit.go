// internal/pkg/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore is the fixed-window counter the limiter runs on. Backed by a
// shared store so counters survive process restarts and multi-instance
// deployments.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

// RedisCounterStore implements CounterStore on a redis client.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	// Set expiration on first hit
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count, nil
}

func (s *RedisCounterStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Limiter enforces fixed-window limits keyed by caller-provided identifiers.
type Limiter struct {
	store CounterStore
}

func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store}
}

// Allow increments the counter for key and reports whether the request is
// within max for the window. Remaining attempts are returned for headers.
func (l *Limiter) Allow(ctx context.Context, key string, max int64, window time.Duration) (bool, int64, error) {
	count, err := l.store.Incr(ctx, fmt.Sprintf("ratelimit:%s", key), window)
	if err != nil {
		return false, 0, err
	}

	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= max, remaining, nil
}

// Reset clears the counter for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, fmt.Sprintf("ratelimit:%s", key))
}
