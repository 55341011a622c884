package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/hexblog/hexblog/internal/config"
)

// Cache key prefixes.
const (
	PostListingCachePrefix = "posts:page:"
	postListingTag         = "post-listings"
)

// ListingCache caches pages of the public post listing. Failures are logged and treated as misses.
type ListingCache[T any] struct {
	pages *PrefixedCache[T]
	ttl   time.Duration
}

// NewListingCache creates a listing cache backed by the configured store.
func NewListingCache[T any](cfg *config.CacheConfig) *ListingCache[T] {
	return &ListingCache[T]{
		pages: NewPrefixedCache[T](newCacheInstanceByType(cfg), PostListingCachePrefix),
		ttl:   cfg.TTL,
	}
}

// Get returns the cached page, if any.
func (l *ListingCache[T]) Get(ctx context.Context, page int) (T, bool) {
	v, err := l.pages.Get(ctx, page)
	if err != nil {
		var zero T
		log.Debug("Cache miss for post listing", "page", page)
		return zero, false
	}
	log.Debug("Cache hit for post listing", "page", page)
	return v, true
}

// Set stores a page.
func (l *ListingCache[T]) Set(ctx context.Context, page int, v T) {
	err := l.pages.Set(ctx, page, v,
		store.WithExpiration(l.ttl),
		store.WithTags([]string{postListingTag}),
	)
	if err != nil {
		log.Warn("Failed to cache post listing", "page", page, "error", err)
	}
}

// Invalidate drops every cached page.
func (l *ListingCache[T]) Invalidate(ctx context.Context) {
	if err := l.pages.Invalidate(ctx, store.WithInvalidateTags([]string{postListingTag})); err != nil {
		log.Warn("Failed to invalidate post listings", "error", err)
	}
}

// Stats returns hit and miss counters.
func (l *ListingCache[T]) Stats() *codec.Stats {
	return l.pages.GetStats()
}

// Type returns the name of the backing store.
func (l *ListingCache[T]) Type() string {
	return l.pages.GetType()
}
