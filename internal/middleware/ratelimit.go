package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"ngo_connect_backend/internal/logger"
	"ngo_connect_backend/pkg/apperrors"
)

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Prefix   string
}

// RateLimiter counts requests per client in a fixed Redis window shared by
// all instances. Without Redis, or while Redis fails, it falls back to an
// in-process token bucket per client.
type RateLimiter struct {
	redis  *redis.Client
	prefix string
	limit  int
	window time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	calls    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const pruneEvery = 1000

func NewRateLimiter(client *redis.Client, conf RateLimitConfig) *RateLimiter {
	if conf.Requests <= 0 {
		conf.Requests = 120
	}
	if conf.Window <= 0 {
		conf.Window = time.Minute
	}
	if conf.Prefix == "" {
		conf.Prefix = "ngo_connect"
	}
	return &RateLimiter{
		redis:    client,
		prefix:   conf.Prefix,
		limit:    conf.Requests,
		window:   conf.Window,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether key may make another request now.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l.redis != nil {
		allowed, err := l.allowRedis(ctx, key)
		if err == nil {
			return allowed
		}
		logger.CtxWarn(ctx, "Redis rate limiter unavailable, using local limiter", "error", err)
	}
	return l.allowLocal(key)
}

func (l *RateLimiter) allowRedis(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:ratelimit:%s", l.prefix, key)
	count, err := l.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.limit), nil
}

func (l *RateLimiter) allowLocal(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%pruneEvery == 0 {
		cutoff := now.Add(-5 * l.window)
		for k, v := range l.visitors {
			if v.lastSeen.Before(cutoff) {
				delete(l.visitors, k)
			}
		}
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Middleware limits by client IP.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.Request.Context(), c.ClientIP()) {
			logger.CtxWarn(c.Request.Context(), "Rate limit exceeded", "ip", c.ClientIP(), "path", c.Request.URL.Path)
			c.Header("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
			apperrors.HandleError(c, apperrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
