package api

import (
	"testing"
	"time"

	"github.com/hexblog/hexblog/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(&config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute, Burst: 2})
	rl.now = func() time.Time { return now }
	rl.lastPrune = now

	ok, _ := rl.allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.allow("1.2.3.4")
	assert.True(t, ok)

	ok, delay := rl.allow("1.2.3.4")
	assert.False(t, ok)
	assert.Greater(t, delay, time.Duration(0))

	ok, _ = rl.allow("5.6.7.8")
	assert.True(t, ok, "keys are limited independently")

	// one token every 30 seconds
	now = now.Add(31 * time.Second)
	ok, _ = rl.allow("1.2.3.4")
	assert.True(t, ok)
}

func TestRateLimiter_PrunesIdleKeys(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(&config.RateLimitConfig{Enabled: true, Requests: 5, Window: time.Minute, Burst: 5})
	rl.now = func() time.Time { return now }
	rl.lastPrune = now

	rl.allow("1.1.1.1")
	rl.allow("2.2.2.2")
	assert.Equal(t, 2, rl.size())

	now = now.Add(limiterIdleAfter + time.Second)
	rl.allow("3.3.3.3")
	assert.Equal(t, 1, rl.size())
}
