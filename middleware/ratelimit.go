package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"klinika/common"
)

// rateLimiterStore holds one limiter per client IP.
type rateLimiterStore struct {
	limiters map[string]*visitor
	mu       sync.Mutex
	every    rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.limiters[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(s.every, s.burst)}
		s.limiters[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// prune forgets clients not seen for idle.
func (s *rateLimiterStore) prune(idle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ip, v := range s.limiters {
		if time.Since(v.lastSeen) > idle {
			delete(s.limiters, ip)
		}
	}
}

// RateLimiter allows perMinute requests per IP with a burst of the same size.
// Admin requests are not limited.
type RateLimiter struct {
	store *rateLimiterStore
	log   *zap.Logger
}

func NewRateLimiter(perMinute int, log *zap.Logger) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{
		store: &rateLimiterStore{
			limiters: make(map[string]*visitor),
			every:    rate.Every(time.Minute / time.Duration(perMinute)),
			burst:    perMinute,
		},
		log: log,
	}
}

func (r *RateLimiter) Prune(idle time.Duration) {
	r.store.prune(idle)
}

func (r *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if common.IsAdmin(c) {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if !r.store.getLimiter(ip).Allow() {
			r.log.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again later."})
			return
		}
		c.Next()
	}
}
