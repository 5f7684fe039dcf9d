package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 3 * time.Minute
	messageRateLimited   = "Too many requests, please slow down"
)

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	enabled bool
	logger  *zap.Logger
}

func newIPRateLimiter(cfg RateLimit, logger *zap.Logger) *ipRateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(float64(cfg.PerMinute) / 60),
		burst:   burst,
		enabled: cfg.PerMinute > 0,
		logger:  logger,
	}
}

func (l *ipRateLimiter) bucket(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.buckets[ip]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, ok = l.buckets[ip]; !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.buckets[ip] = limiter
	}
	return limiter
}

func (l *ipRateLimiter) allow(ip string) bool {
	if !l.enabled {
		return true
	}
	if ip == "" {
		ip = "unknown"
	}
	return l.bucket(ip).Allow()
}

// sweep drops buckets that have refilled completely.
func (l *ipRateLimiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for ip, limiter := range l.buckets {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(l.buckets, ip)
			removed++
		}
	}
	return removed
}

func (l *ipRateLimiter) run(ctx context.Context) {
	if !l.enabled {
		return
	}
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := l.sweep(now); removed > 0 {
				l.logger.Debug("rate limiter sweep", zap.Int("removed", removed))
			}
		}
	}
}

func (l *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			l.logger.Warn("rate limit exceeded", zap.String("client_ip", c.ClientIP()), zap.String("path", c.Request.URL.Path))
			respondMessage(c, http.StatusTooManyRequests, messageRateLimited)
			return
		}
		c.Next()
	}
}
