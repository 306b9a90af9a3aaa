package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisGate(t *testing.T) {
	client := newTestRedis(t)
	gate := NewRedisGate(client, time.Hour)
	ctx := context.Background()

	assert.True(t, gate.Allow(ctx, "user@example.com"))
	assert.False(t, gate.Allow(ctx, "user@example.com"), "second reply within cooldown denied")
	assert.False(t, gate.Allow(ctx, "USER@example.com"), "address comparison is case-insensitive")
	assert.True(t, gate.Allow(ctx, "other@example.com"))
}

func TestRedisGateFailsClosed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	gate := NewRedisGate(client, time.Hour)
	assert.False(t, gate.Allow(context.Background(), "user@example.com"))
}

func TestMemoryGate(t *testing.T) {
	gate := NewMemoryGate(time.Hour)
	now := time.Now()
	gate.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, gate.Allow(ctx, "user@example.com"))
	assert.False(t, gate.Allow(ctx, "user@example.com"))

	// Just inside the window.
	now = now.Add(59 * time.Minute)
	assert.False(t, gate.Allow(ctx, "user@example.com"))

	// Past the window.
	now = now.Add(2 * time.Minute)
	assert.True(t, gate.Allow(ctx, "user@example.com"))
}
