package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/poolchaos/personalfit-api/pkg/api"
)

// bucketIdleTTL is how long an untouched bucket survives before a sweep
// may reclaim it.
const bucketIdleTTL = 10 * time.Minute

// bucketSweepThreshold caps map growth: once this many buckets exist,
// inserting a new one first drops the idle ones.
const bucketSweepThreshold = 1024

// bucket pairs a token bucket with the last time its owner was seen.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. Plan generation is
// expensive enough that a single hot client can drain the provider
// budget, so limits apply before auth even runs. Buckets key on the
// presented API key when there is one; callers behind a shared NAT then
// do not contend for one budget, and a rejected request never reaches
// the key lookup. Anonymous traffic falls back to the client IP.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	logger  *zap.Logger
}

func NewRateLimiter(rps float64, burst int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		logger:  logger,
	}
}

// clientKey derives the bucket key for a request. Tokens are hashed
// before use so the map never holds a credential.
func clientKey(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		sum := sha256.Sum256([]byte(token))
		return "key:" + hex.EncodeToString(sum[:8])
	}
	return "ip:" + c.ClientIP()
}

// take returns the caller's limiter, creating it on first sight and
// refreshing its idle clock on every hit.
func (rl *RateLimiter) take(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}

	if len(rl.buckets) >= bucketSweepThreshold {
		rl.sweepLocked(now)
	}

	b := &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst), lastSeen: now}
	rl.buckets[key] = b
	return b.limiter
}

// sweepLocked drops buckets idle past bucketIdleTTL. Callers hold mu.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > bucketIdleTTL {
			delete(rl.buckets, key)
		}
	}
}

// Middleware returns the Gin middleware handler.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)

		if !rl.take(key).Allow() {
			rl.logger.Warn("Rate limit exceeded",
				zap.String("client", key),
				zap.String("path", c.Request.URL.Path),
			)
			p := api.RateLimitError("Too many requests; slow down and retry")
			c.AbortWithStatusJSON(p.Status, p)
			return
		}

		c.Next()
	}
}
