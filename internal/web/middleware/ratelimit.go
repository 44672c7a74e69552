package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonMunkholm/signup/internal/logging"
	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is reported to clients over their request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// Decision is a limiter's answer for one request.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the client identified by key may proceed.
// A non-nil error means the limiter itself failed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RateLimit enforces l per client IP. Requests over the limit get 429 with
// Retry-After. When the limiter errors the request is let through.
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), ClientIP(r))
			if err != nil {
				logging.FromContext(r.Context()).Warn("rate limiter unavailable, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))

			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(d.RetryAfter)))
				writeError(w, r, http.StatusTooManyRequests, ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retrySeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// MemoryLimiter is a per-process fixed-window limiter: each key gets rate
// requests per window.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	now      func() time.Time

	stop chan struct{}
	once sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// NewMemoryLimiter creates a MemoryLimiter and starts its cleanup loop.
// Call Stop to end the loop.
func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (l *MemoryLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// cleanup drops visitors idle for more than two windows.
func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, v := range l.visitors {
				if now.Sub(v.lastReset) > l.window*2 {
					delete(l.visitors, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Allow consumes one token for key if any are left in the current window.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok || now.Sub(v.lastReset) > l.window {
		l.visitors[key] = &visitor{tokens: l.rate - 1, lastReset: now}
		return Decision{Allowed: true, Limit: l.rate, Remaining: l.rate - 1}, nil
	}

	if v.tokens <= 0 {
		return Decision{
			Allowed:    false,
			Limit:      l.rate,
			RetryAfter: v.lastReset.Add(l.window).Sub(now),
		}, nil
	}

	v.tokens--
	return Decision{Allowed: true, Limit: l.rate, Remaining: v.tokens}, nil
}

// RedisLimiter is a fixed-window limiter shared through redis. A client
// that exceeds the limit is blocked for blockDuration.
type RedisLimiter struct {
	rdb           redis.Cmdable
	limit         int
	window        time.Duration
	blockDuration time.Duration
	prefix        string
}

// NewRedisLimiter creates a RedisLimiter. Keys are stored as
// "{prefix}:ip:{key}" with a "{...}:blocked" companion.
func NewRedisLimiter(rdb redis.Cmdable, limit int, window, blockDuration time.Duration, prefix string) *RedisLimiter {
	return &RedisLimiter{
		rdb:           rdb,
		limit:         limit,
		window:        window,
		blockDuration: blockDuration,
		prefix:        prefix,
	}
}

// Allow increments the client's counter for the current window. Any redis
// failure is returned so RateLimit can let the request through.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	counterKey := l.prefix + ":ip:" + key
	blockKey := counterKey + ":blocked"

	blocked, err := l.rdb.Get(ctx, blockKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Decision{}, fmt.Errorf("read block key: %w", err)
	}
	if blocked == "1" {
		ttl, err := l.rdb.TTL(ctx, blockKey).Result()
		if err != nil || ttl <= 0 {
			ttl = l.blockDuration
		}
		return Decision{Allowed: false, Limit: l.limit, RetryAfter: ttl}, nil
	}

	count, err := l.rdb.Incr(ctx, counterKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("increment counter: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, counterKey, l.window).Err(); err != nil {
			// A counter without a TTL would never reset.
			delErr := l.rdb.Del(ctx, counterKey).Err()
			return Decision{}, errors.Join(fmt.Errorf("expire counter: %w", err), delErr)
		}
	}

	if count > int64(l.limit) {
		if err := l.rdb.Set(ctx, blockKey, "1", l.blockDuration).Err(); err != nil {
			return Decision{}, fmt.Errorf("write block key: %w", err)
		}
		return Decision{Allowed: false, Limit: l.limit, RetryAfter: l.blockDuration}, nil
	}

	return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - int(count)}, nil
}
