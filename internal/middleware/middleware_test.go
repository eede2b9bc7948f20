package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterWindow(t *testing.T) {
	limiter := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		got, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, want, got, "attempt %d", i+1)
	}

	other, _ := limiter.Allow(ctx, "5.6.7.8")
	assert.True(t, other)

	now = now.Add(time.Minute)
	again, _ := limiter.Allow(ctx, "1.2.3.4")
	assert.True(t, again)
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (s stubLimiter) Allow(context.Context, string) (bool, error) { return s.allowed, s.err }

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name    string
		limiter Limiter
		want    int
	}{
		{"allowed", stubLimiter{allowed: true}, http.StatusTeapot},
		{"limited", stubLimiter{allowed: false}, http.StatusTooManyRequests},
		{"limiter down", stubLimiter{err: errors.New("redis down")}, http.StatusTeapot},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RateLimit(tc.limiter)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS(NewOriginPolicy([]string{"https://portfolio.dev/"}))(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://portfolio.dev")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://portfolio.dev", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://portfolio.dev")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://portfolio.dev", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestOriginPolicy(t *testing.T) {
	policy := NewOriginPolicy([]string{"https://Portfolio.dev/"})

	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"listed", "https://portfolio.dev", "api.portfolio.dev", true},
		{"not listed", "https://evil.example", "api.portfolio.dev", false},
		{"no origin header", "", "api.portfolio.dev", true},
		{"same host", "http://localhost:8080", "localhost:8080", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			req.Host = tc.host
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			assert.Equal(t, tc.want, policy.CheckOrigin(req))
		})
	}

	assert.True(t, NewOriginPolicy([]string{"*"}).Allowed("https://anything.example"))
}

func TestNewRedisLimiterRejectsBadURL(t *testing.T) {
	_, err := NewRedisLimiter(context.Background(), "not-a-redis-url", 1, time.Minute)
	assert.Error(t, err)
}
