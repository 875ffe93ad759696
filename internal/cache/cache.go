package cache

import (
	"context"
	"time"
)

// StatsCache stores dashboard aggregates keyed by stats kind. Get decodes the
// cached value into dest and reports whether it was present.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopStatsCache struct{}

func (NoopStatsCache) Get(_ context.Context, _ string, _ any) (bool, error) {
	return false, nil
}

func (NoopStatsCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}

func (NoopStatsCache) Invalidate(_ context.Context) error {
	return nil
}
