package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/shared/server/respond"
)

const fallbackGroup = "DEFAULT"

// RateLimitRule refills Rate tokens per second up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// PerMinute allows n requests a minute, all of them usable at once.
func PerMinute(n int) RateLimitRule {
	if n <= 0 {
		return RateLimitRule{}
	}
	return RateLimitRule{Rate: float64(n) / 60, Burst: n}
}

func (r RateLimitRule) disabled() bool { return r.Rate <= 0 || r.Burst <= 0 }

// RateLimitConfig maps route groups to rules. GroupFor picks the group of a
// request; an empty answer falls back to DefaultGroup.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

func (cfg RateLimitConfig) group(c *gin.Context) string {
	if cfg.GroupFor != nil {
		if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
			return g
		}
	}
	return cfg.DefaultGroup
}

// RateLimiter keeps one token bucket per key in memory.
type RateLimiter struct {
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// refill tops the bucket up for the time passed since it was last seen.
func (b *bucket) refill(now time.Time, rule RateLimitRule) {
	if d := now.Sub(b.seen); d > 0 {
		b.tokens = math.Min(float64(rule.Burst), b.tokens+d.Seconds()*rule.Rate)
		b.seen = now
	}
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{now: now, buckets: map[string]*bucket{}}
}

// Allow takes a token for key. When none is left it reports how long until
// the next one is due.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.disabled() {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		b = &bucket{tokens: float64(rule.Burst), seen: now}
		l.buckets[key] = b
	}
	b.refill(now, rule)
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := math.Max(0, (1-b.tokens)/rule.Rate)
	return false, time.Duration(math.Ceil(wait*1000)) * time.Millisecond
}

// RateLimit throttles each client IP per route group. Groups without a rule
// are not limited.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = fallbackGroup
	}
	return func(c *gin.Context) {
		group := cfg.group(c)
		rule, limited := cfg.Rules[group]
		if !limited {
			c.Next()
			return
		}
		ok, wait := cfg.Limiter.Allow(strings.TrimSpace(c.ClientIP())+"|"+group, rule)
		if ok {
			c.Next()
			return
		}
		rejectTooMany(c, wait)
	}
}

func rejectTooMany(c *gin.Context, wait time.Duration) {
	ms := wait.Milliseconds()
	if ms <= 0 {
		ms = 1000
	}
	secs := (ms + 999) / 1000
	c.Header("Retry-After", strconv.FormatInt(secs, 10))
	respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down",
		gin.H{"retry_after_ms": ms})
}
