package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a live server: PRICELIST_TEST_REDIS_ADDR=localhost:6379.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("PRICELIST_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PRICELIST_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisLimiter_AllowBlocksAfterLimitAndRecovers(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	clock := newFakeClock()
	prefix := "test:" + uuid.NewString() + ":"
	l := NewRedis(client, prefix, 5, 60*time.Second, clock)

	for i := 0; i < 5; i++ {
		d, err := l.Allow(ctx, "login:10.0.0.1")
		require.NoError(t, err)
		require.True(t, d.Allowed)
		assert.Equal(t, 4-i, d.Remaining)
	}
	d, err := l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 60*time.Second, d.RetryAfter)

	clock.Advance(60 * time.Second)
	d, err = l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_ReleaseFreesSlot(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"
	l := NewRedis(client, prefix, 2, time.Minute, newFakeClock())

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	require.NoError(t, l.Release(ctx, "k"))
	d, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	require.NoError(t, l.Release(ctx, "k"))
	require.NoError(t, l.Release(ctx, "k"))
	n, err := client.Exists(ctx, prefix+"k").Result()
	require.NoError(t, err)
	assert.Zero(t, n, "an emptied window is deleted")
}
