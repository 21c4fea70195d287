package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngo_connect_backend/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/items/:id", func(c *gin.Context) {
		c.String(http.StatusOK, logger.GetRequestID(c.Request.Context()))
	})
	return r
}

func get(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newRouter(RequestIDMiddleware())

	w := get(r, "/items/1", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	w = get(r, "/items/1", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
}

func TestRateLimiter_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(client, RateLimitConfig{Requests: 2, Window: time.Minute, Prefix: "test"})
	r := newRouter(limiter.Middleware())

	assert.Equal(t, http.StatusOK, get(r, "/items/1", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/items/1", nil).Code)
	w := get(r, "/items/1", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "LIMIT_EXCEEDED")

	ttl := mr.TTL("test:ratelimit:192.0.2.1")
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, get(r, "/items/1", nil).Code)
}

func TestRateLimiter_FallsBackWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	limiter := NewRateLimiter(client, RateLimitConfig{Requests: 1, Window: time.Hour})
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "client"))
	assert.False(t, limiter.Allow(ctx, "client"))
	assert.True(t, limiter.Allow(ctx, "other"))
}

func TestRateLimiter_LocalOnly(t *testing.T) {
	limiter := NewRateLimiter(nil, RateLimitConfig{Requests: 3, Window: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(ctx, "client"), i)
	}
	assert.False(t, limiter.Allow(ctx, "client"))
}

type recordedRequest struct {
	method, route string
	code          int
}

type fakeObserver struct{ got []recordedRequest }

func (o *fakeObserver) HTTPRequest(method, route string, code int, _ time.Duration) {
	o.got = append(o.got, recordedRequest{method, route, code})
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	obs := &fakeObserver{}
	r := newRouter(MetricsMiddleware(obs))

	get(r, "/items/42", nil)
	get(r, "/nowhere", nil)

	require.Len(t, obs.got, 2)
	assert.Equal(t, recordedRequest{"GET", "/items/:id", 200}, obs.got[0])
	assert.Equal(t, recordedRequest{"GET", "unmatched", 404}, obs.got[1])
}

func TestCORSMiddleware(t *testing.T) {
	r := newRouter(CORSMiddleware([]string{"https://ngo.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/items/1", nil)
	req.Header.Set("Origin", "https://ngo.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ngo.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, "/items/1", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
