package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopStatsCache(t *testing.T) {
	ctx := context.Background()
	var c StatsCache = NoopStatsCache{}

	require.NoError(t, c.Set(ctx, "inventory", map[string]int{"count": 5}, time.Minute))

	var dest map[string]int
	ok, err := c.Get(ctx, "inventory", &dest)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, dest)

	assert.NoError(t, c.Invalidate(ctx))
}

func TestStatsKey(t *testing.T) {
	assert.Equal(t, "qbodega:stats:sales:2024-03-10", statsKey("sales:2024-03-10"))
}

func TestRedisStatsCacheImplementsStatsCache(t *testing.T) {
	var c StatsCache = NewRedisStatsCache("127.0.0.1:0", "", 0)
	closer, ok := c.(interface{ Close() error })
	require.True(t, ok)
	assert.NoError(t, closer.Close())
}

func TestRedisStatsCacheSetIgnoresNilWithoutRoundTrip(t *testing.T) {
	c := NewRedisStatsCache("127.0.0.1:0", "", 0)
	t.Cleanup(func() { _ = c.Close() })

	assert.NoError(t, c.Set(context.Background(), "inventory", nil, time.Minute))
}
