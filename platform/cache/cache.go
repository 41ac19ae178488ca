// Package cache provides the read-through cache used for reference data.
// Expiry is evaluated against an injected Clock so callers and tests control time.
package cache

import (
	"context"
	"fmt"
	"time"

	"repairshop_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Cache stores JSON-serialisable values under string keys.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether it was present.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// GetOrLoad returns the cached value for key, calling load and storing its
// result on a miss. Cache failures fall through to load.
func GetOrLoad[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if ok, err := c.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}

// FromConfig builds the configured backend.
func FromConfig(cfg config.CacheConfig, clock Clock) (Cache, error) {
	switch cfg.GetCacheBackend() {
	case "", "memory":
		return NewMemory(clock), nil
	case "redis":
		opt, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return NewRedis(redis.NewClient(opt), "repairshop:cache:"), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.GetCacheBackend())
	}
}
