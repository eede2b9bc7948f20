package middleware

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gabrieljoian/portfolio/backend/pkg/utils"
)

// Limiter decides whether key may perform another action in the current
// window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter is a fixed-window limiter local to one process.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewMemoryLimiter allows limit actions per key per window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok || now.Sub(v.windowStart) >= l.window {
		l.visitors[key] = &visitor{count: 1, windowStart: now}
		l.prune(now)
		return true, nil
	}

	v.count++
	return v.count <= l.limit, nil
}

func (l *MemoryLimiter) prune(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.windowStart) >= l.window {
			delete(l.visitors, key)
		}
	}
}

// RedisLimiter shares a fixed-window counter between instances.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter parses redisURL and verifies the connection.
func NewRedisLimiter(ctx context.Context, redisURL string, limit int, window time.Duration) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "assistant:submit:"}, nil
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expiry: %w", err)
		}
	}
	return count <= int64(l.limit), nil
}

// Close releases the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// failures let the request through.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), ClientKey(r))
			if err != nil {
				log.Printf("[ratelimit] limiter unavailable: %v", err)
				allowed = true
			}
			if !allowed {
				utils.RespondError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey identifies the caller for rate limiting. It relies on chi's
// RealIP having normalised RemoteAddr.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
