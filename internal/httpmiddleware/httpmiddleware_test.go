package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func TestTokenBucketRefills(t *testing.T) {
	l := NewTokenBucket(2, 60)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.allow("a")
	assert.True(t, ok)
	ok, _ = l.allow("a")
	assert.True(t, ok)
	ok, wait := l.allow("a")
	require.False(t, ok)
	assert.InDelta(t, float64(time.Second), float64(wait), float64(time.Millisecond))

	ok, _ = l.allow("b")
	assert.True(t, ok, "buckets are per client")

	now = now.Add(time.Second)
	ok, _ = l.allow("a")
	assert.True(t, ok)
}

func TestIdleBucketsAreEvicted(t *testing.T) {
	l := NewTokenBucket(2, 60)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for _, key := range []string{"a", "b", "c"} {
		ok, _ := l.allow(key)
		require.True(t, ok)
	}
	assert.Len(t, l.state, 3)

	now = now.Add(time.Second)
	l.allow("a")
	assert.Len(t, l.state, 3, "buckets that are still refilling are kept")

	now = now.Add(2 * time.Second)
	ok, _ := l.allow("d")
	require.True(t, ok)
	assert.Len(t, l.state, 1)
	assert.Contains(t, l.state, "d")
}

func TestGinMiddleware(t *testing.T) {
	l := NewTokenBucket(1, 1)
	r := gin.New()
	r.Use(SecurityHeaders(true), l.GinMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestDisabledLimiter(t *testing.T) {
	l := NewTokenBucket(0, 0)
	r := gin.New()
	r.Use(l.GinMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
