package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client IP. Idle buckets expire.
type clientLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	clients *cache.Cache
}

func newClientLimiter(limit rate.Limit, burst int) *clientLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiter{
		limit:   limit,
		burst:   burst,
		clients: cache.New(10*time.Minute, 10*time.Minute),
	}
}

func (l *clientLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, found := l.clients.Get(key)
	if !found {
		lim = rate.NewLimiter(l.limit, l.burst)
	}
	l.clients.SetDefault(key, lim)
	return lim.(*rate.Limiter)
}

// Middleware answers 429 once a client's bucket is empty
func (l *clientLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit == rate.Inf {
			c.Next()
			return
		}
		if !l.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again shortly"})
			return
		}
		c.Next()
	}
}
