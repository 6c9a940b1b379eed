package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/lyftr/config"
	"github.com/use-agent/lyftr/models"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = time.Hour
	limiterSweepTick = 5 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiters holds one token bucket per caller identity (API key, else
// client IP).
type Limiters struct {
	cfg     config.RateLimitConfig
	mu      sync.Mutex
	entries map[string]*limiterEntry
}

// NewLimiters creates the bucket set and starts evicting idle entries
// until ctx is done.
func NewLimiters(ctx context.Context, cfg config.RateLimitConfig) *Limiters {
	l := &Limiters{cfg: cfg, entries: make(map[string]*limiterEntry)}
	go l.sweep(ctx)
	return l
}

func (l *Limiters) get(identity string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[identity]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.entries[identity] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

func (l *Limiters) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cutoff := now.Add(-limiterIdleTTL)
			l.mu.Lock()
			for id, e := range l.entries {
				if e.lastSeen.Before(cutoff) {
					delete(l.entries, id)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Middleware rejects callers that exceed their bucket with 429 and a
// Retry-After hint.
func (l *Limiters) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.GetString("api_key")
		if identity == "" {
			identity = c.ClientIP()
		}

		if !l.get(identity).Allow() {
			if l.cfg.RequestsPerSecond > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(1/l.cfg.RequestsPerSecond))))
			}
			abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited, "rate limit exceeded, please slow down")
			return
		}
		c.Next()
	}
}
