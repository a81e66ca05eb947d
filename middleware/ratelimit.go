package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"invoice-qa-platform/internal/config"
	"invoice-qa-platform/utils"
)

// ipLimiter tracks one token bucket per client IP. Entries idle for an hour
// are dropped on the next lookup sweep.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipEntry
	limit    rate.Limit
	burst    int
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(reqs, windowSecs int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*ipEntry),
		limit:    rate.Limit(float64(reqs) / float64(windowSecs)),
		burst:    reqs,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if len(l.limiters) > 1024 {
		for ip, entry := range l.limiters {
			if now.Sub(entry.lastSeen) > time.Hour {
				delete(l.limiters, ip)
			}
		}
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimitMiddleware limits requests per client IP using in-process token
// buckets. Session state never leaves this process, so neither does the
// rate accounting.
func RateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	limiter := newIPLimiter(cfg.RateLimitReqs, cfg.RateLimitWindow)

	return func(c *gin.Context) {
		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		if !limiter.get(c.ClientIP()).Allow() {
			c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
			c.Header("X-RateLimit-Remaining", "0")

			utils.RespondWithError(c, http.StatusTooManyRequests,
				"rate_limit_exceeded",
				"Too many requests. Please try again later.",
				gin.H{
					"retry_after": cfg.RateLimitWindow,
					"limit":       cfg.RateLimitReqs,
				})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
		c.Next()
	}
}
