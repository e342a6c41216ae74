package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"expiry-backend/internal/shared/server/respond"
)

const (
	defaultRateLimitGroup = "DEFAULT"
	limiterIdleTTL        = 10 * time.Minute
	sweepEvery            = 1024
)

// RateLimitRule is a token bucket refilled at Rate tokens per second up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// PerMinute builds a rule allowing n requests per minute with a burst of n.
func PerMinute(n float64) RateLimitRule {
	burst := int(math.Ceil(n))
	if burst < 1 {
		burst = 1
	}
	return RateLimitRule{Rate: n / 60.0, Burst: burst}
}

type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// RateLimiter keeps one x/time/rate limiter per key.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	now      func() time.Time
	calls    int
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	rule     RateLimitRule
	lastSeen time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		limiters: make(map[string]*keyedLimiter),
		now:      now,
	}
}

func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}

	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}

		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}

		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}
		key := principal + "|" + group

		allowed, retryAfter := cfg.Limiter.Allow(key, rule)
		if allowed {
			c.Next()
			return
		}

		TooManyRequests(c, retryAfter)
	}
}

// TooManyRequests writes the 429 response with Retry-After.
func TooManyRequests(c *gin.Context, retryAfter time.Duration) {
	retryAfterMs := int(retryAfter / time.Millisecond)
	if retryAfterMs <= 0 {
		retryAfterMs = 1000
	}
	retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
	if retryAfterSeconds <= 0 {
		retryAfterSeconds = 1
	}

	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later",
		gin.H{"retryAfterMs": retryAfterMs})
}

// Allow consumes one token for key and reports how long to wait when none is left.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}

	entry, ok := l.limiters[key]
	if !ok || entry.rule != rule {
		entry = &keyedLimiter{
			limiter: rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst),
			rule:    rule,
		}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Second
	}
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return true, 0
	}
	reservation.CancelAt(now)
	return false, delay
}

func (l *RateLimiter) sweep(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(l.limiters, key)
		}
	}
}
