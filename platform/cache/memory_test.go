package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestMemoryExpiresAgainstInjectedClock(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := NewMemory(clock)

	require.NoError(t, c.Set(ctx, "departments", []department{{ID: "d1", Name: "Repairs"}}, time.Minute))

	var got []department
	ok, err := c.Get(ctx, "departments", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Repairs", got[0].Name)

	clock.advance(59 * time.Second)
	ok, err = c.Get(ctx, "departments", &got)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.advance(time.Second)
	ok, err = c.Get(ctx, "departments", &got)
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire exactly at ttl")
}

type hookClock struct {
	now    time.Time
	onNext func()
}

func (c *hookClock) Now() time.Time {
	if fn := c.onNext; fn != nil {
		c.onNext = nil
		fn()
	}
	return c.now
}

func TestMemoryExpiryKeepsConcurrentlyRefreshedEntry(t *testing.T) {
	ctx := context.Background()
	clock := &hookClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := NewMemory(clock)
	require.NoError(t, c.Set(ctx, "departments", []department{{ID: "d1", Name: "Old"}}, time.Minute))

	clock.now = clock.now.Add(2 * time.Minute)
	clock.onNext = func() {
		require.NoError(t, c.Set(ctx, "departments", []department{{ID: "d1", Name: "Fresh"}}, 0))
	}

	var got []department
	ok, err := c.Get(ctx, "departments", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Get(ctx, "departments", &got)
	require.NoError(t, err)
	require.True(t, ok, "refreshed entry must survive the expiry of the old one")
	assert.Equal(t, "Fresh", got[0].Name)
}

func TestMemoryInvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(nil)

	require.NoError(t, c.Set(ctx, "catalog:services", 1, 0))
	require.NoError(t, c.Set(ctx, "catalog:parts", 2, 0))
	require.NoError(t, c.Set(ctx, "users:1", 3, 0))

	require.NoError(t, c.InvalidatePrefix(ctx, "catalog:"))

	var v int
	ok, _ := c.Get(ctx, "catalog:services", &v)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, "catalog:parts", &v)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, "users:1", &v)
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestGetOrLoadCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(nil)
	loads := 0
	load := func(context.Context) ([]department, error) {
		loads++
		return []department{{ID: "d1", Name: "Horeca"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrLoad(ctx, c, "departments", time.Minute, load)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, 1, loads)

	require.NoError(t, c.Invalidate(ctx, "departments"))
	_, err := GetOrLoad(ctx, c, "departments", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(nil)
	errLoad := errors.New("db down")

	_, err := GetOrLoad(ctx, c, "departments", time.Minute, func(context.Context) (int, error) {
		return 0, errLoad
	})
	require.ErrorIs(t, err, errLoad)

	var v int
	ok, _ := c.Get(ctx, "departments", &v)
	assert.False(t, ok)
}
