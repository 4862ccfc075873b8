// internal/pkg/ratelimit/ratelimit_test.go
package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewLimiter(NewRedisCounterStore(client)), mr
}

func TestAllowWithinLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		ok, remaining, err := limiter.Allow(ctx, "login:alice@example.com", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 3-i, remaining)
	}
}

func TestAllowRejectsOverLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := limiter.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
	}

	ok, remaining, err := limiter.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(0), remaining)
}

func TestAllowKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := limiter.Allow(ctx, "busy", 1, time.Minute)
		require.NoError(t, err)
	}

	ok, _, err := limiter.Allow(ctx, "quiet", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetClearsCounter(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := limiter.Allow(ctx, "k", 1, time.Minute)
		require.NoError(t, err)
	}

	require.NoError(t, limiter.Reset(ctx, "k"))

	ok, _, err := limiter.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	ok, _, err := limiter.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = limiter.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, _, err = limiter.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
