package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "test:"), mr
}

func TestRedisRoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "departments", []department{{ID: "d1", Name: "Salons"}}, time.Minute))
	assert.True(t, mr.Exists("test:departments"))

	var got []department
	ok, err := c.Get(ctx, "departments", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Salons", got[0].Name)

	mr.FastForward(2 * time.Minute)
	ok, err = c.Get(ctx, "departments", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisInvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "catalog:services", 1, 0))
	require.NoError(t, c.Set(ctx, "catalog:instruments", 2, 0))
	require.NoError(t, c.Set(ctx, "other", 3, 0))

	require.NoError(t, c.InvalidatePrefix(ctx, "catalog:"))

	assert.False(t, mr.Exists("test:catalog:services"))
	assert.False(t, mr.Exists("test:catalog:instruments"))
	assert.True(t, mr.Exists("test:other"))
}

func TestRedisMissingKey(t *testing.T) {
	c, _ := newTestRedis(t)
	var v int
	ok, err := c.Get(context.Background(), "nope", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}
