package cache

import (
	"context"
	"testing"
	"time"

	"github.com/hexblog/hexblog/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPage struct {
	Slugs []string `json:"slugs"`
	Total int64    `json:"total"`
}

func newTestListingCache(t *testing.T) *ListingCache[testPage] {
	t.Helper()
	return NewListingCache[testPage](&config.CacheConfig{
		Type: config.CacheTypeMemory,
		TTL:  time.Minute,
	})
}

func TestListingCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestListingCache(t)

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	c.Set(ctx, 1, testPage{Slugs: []string{"a", "b"}, Total: 2})

	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got.Slugs)
	assert.EqualValues(t, 2, got.Total)

	_, ok = c.Get(ctx, 2)
	assert.False(t, ok)
}

func TestListingCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := newTestListingCache(t)

	c.Set(ctx, 1, testPage{Total: 1})
	c.Set(ctx, 2, testPage{Total: 1})
	c.Invalidate(ctx)

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	_, ok = c.Get(ctx, 2)
	assert.False(t, ok)
}

func TestListingCache_Stats(t *testing.T) {
	ctx := context.Background()
	c := newTestListingCache(t)

	c.Get(ctx, 1)
	c.Set(ctx, 1, testPage{})
	c.Get(ctx, 1)

	stats := c.Stats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Miss)
}
