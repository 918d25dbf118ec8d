// Package ratelimit provides a sliding-window request limiter for abuse-prone
// endpoints: device credential exchange and punch submission. The window is
// tracked per key in process; multi-instance deployments shard naturally
// because both keys (client IP, user id) are sticky per instance behind
// affinity-based load balancing.
package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"timeclock/pkg/requestcontext"
)

// Result describes one admission decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter admits up to limit requests per key within a sliding window.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Allow records a request against key and reports whether it fit the window.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	stamps := l.windows[key]
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	stamps = stamps[i:]

	if len(stamps) >= l.limit {
		l.windows[key] = stamps
		return Result{Allowed: false, Remaining: 0, ResetAt: stamps[0].Add(l.window)}
	}

	stamps = append(stamps, now)
	l.windows[key] = stamps
	return Result{
		Allowed:   true,
		Remaining: l.limit - len(stamps),
		ResetAt:   stamps[0].Add(l.window),
	}
}

// Reset clears the window for a key. Test helper.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// KeyFunc derives the limiter key from a request.
type KeyFunc func(r *http.Request) string

// KeyByIP keys on the client address resolved by the metadata middleware.
func KeyByIP(r *http.Request) string {
	return "ip:" + requestcontext.ClientIP(r.Context())
}

// KeyByUser keys on the authenticated user, falling back to the client
// address for requests that have not passed auth yet.
func KeyByUser(r *http.Request) string {
	if userID := requestcontext.UserID(r.Context()); !userID.IsNil() {
		return "user:" + userID.String()
	}
	return KeyByIP(r)
}

// Middleware enforces the limiter and exposes standard rate limit headers.
func Middleware(limiter *Limiter, logger *slog.Logger, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := limiter.Allow(key(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				ctx := r.Context()
				logger.WarnContext(ctx, "rate limit exceeded",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(result.ResetAt).Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
