package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/hexblog/hexblog/internal/config"
	"golang.org/x/time/rate"
)

// limiterIdleAfter is how long a key may stay unused before it becomes eligible for pruning.
const limiterIdleAfter = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client key.
type rateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

func newRateLimiter(cfg *config.RateLimitConfig) *rateLimiter {
	perSecond := float64(cfg.Requests) / cfg.Window.Seconds()
	return &rateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Limit(perSecond),
		burst:     cfg.Burst,
		lastPrune: time.Now(),
		now:       time.Now,
	}
}

// allow reports whether a request for key may proceed and, if not, how long to wait.
func (rl *rateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.pruneLocked(now)

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now

	if entry.limiter.AllowN(now, 1) {
		return true, 0
	}

	reservation := entry.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	reservation.CancelAt(now)
	return false, delay
}

// pruneLocked drops idle limiters at most once per idle period. Callers hold mu.
func (rl *rateLimiter) pruneLocked(now time.Time) {
	if now.Sub(rl.lastPrune) < limiterIdleAfter {
		return
	}
	rl.lastPrune = now
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) >= limiterIdleAfter {
			delete(rl.limiters, key)
		}
	}
}

func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// RateLimit limits requests per client IP. A nil or disabled config allows everything.
func RateLimit(cfg *config.RateLimitConfig) gin.HandlerFunc {
	if cfg == nil || !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimitWith(newRateLimiter(cfg), cfg)
}

func rateLimitWith(rl *rateLimiter, cfg *config.RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			log.Warn("rate limit: unable to determine client ip, allowing request")
			c.Next()
			return
		}

		ok, delay := rl.allow(key)
		if ok {
			c.Next()
			return
		}

		retryAfter := max(int(delay.Seconds()), 1)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Window", cfg.Window.String())

		log.Warn("rate limit exceeded", "ip", key, "path", c.Request.URL.Path, "retry_after", retryAfter)
		c.String(http.StatusTooManyRequests, "Too many attempts. Please try again later.")
		c.Abort()
	}
}
