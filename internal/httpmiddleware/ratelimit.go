package httpmiddleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// TokenBucket is a per-client in-memory rate limiter. Buckets refill
// continuously at perMinute tokens per minute up to capacity.
type TokenBucket struct {
	capacity  float64
	perMinute float64
	mu        sync.Mutex
	state     map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a limiter. A non-positive capacity defaults to
// perMinute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity:  float64(capacity),
		perMinute: float64(perMinute),
		state:     make(map[string]*bucket),
		now:       time.Now,
	}
}

// GinMiddleware rejects clients that ran out of tokens with 429. A
// limiter configured with perMinute <= 0 lets everything through.
func (l *TokenBucket) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.perMinute <= 0 {
			c.Next()
			return
		}
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		ok, wait := l.allow(key)
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "too many requests, please slow down",
				"code":    "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

// allow takes a token for key, or reports how long until one is available.
func (l *TokenBucket) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if refill := l.refillTime(); now.Sub(l.lastSweep) >= refill {
		l.sweep(now, refill)
	}
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true, 0
	}
	b.tokens = math.Min(l.capacity, b.tokens+now.Sub(b.last).Minutes()*l.perMinute)
	b.last = now
	if b.tokens < 1 {
		missing := 1 - b.tokens
		return false, time.Duration(missing / l.perMinute * float64(time.Minute))
	}
	b.tokens--
	return true, 0
}

// refillTime is how long an empty bucket takes to fill up again.
func (l *TokenBucket) refillTime() time.Duration {
	return time.Duration(l.capacity / l.perMinute * float64(time.Minute))
}

// sweep drops buckets idle for at least refill. They would be full again,
// which is the state a new bucket starts in.
func (l *TokenBucket) sweep(now time.Time, refill time.Duration) {
	for key, b := range l.state {
		if now.Sub(b.last) >= refill {
			delete(l.state, key)
		}
	}
	l.lastSweep = now
}
