package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"gameforge.gg/platform/pkg/logger"
)

// CounterStore is a shared fixed-window hit counter, normally redis.
type CounterStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// RateLimiter limits requests per client IP. It uses the shared counter when
// one is available and falls back to in-process token buckets when the
// counter is absent or failing.
type RateLimiter struct {
	counter CounterStore
	limit   int
	window  time.Duration
	logger  *logger.Logger

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

func NewRateLimiter(counter CounterStore, limit int, window time.Duration, log *logger.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	if log == nil {
		log = logger.New()
	}
	return &RateLimiter{
		counter: counter,
		limit:   limit,
		window:  window,
		logger:  log,
		local:   make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		allowed, retryAfter := rl.allow(r.Context(), ip)
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, ip string) (bool, int) {
	if rl.counter != nil {
		allowed, retryAfter, err := rl.counter.CheckRateLimit(ctx, "ratelimit:"+ip, rl.limit, rl.window)
		if err == nil {
			return allowed, retryAfter
		}
		rl.logger.Warn("shared rate limit unavailable, using local limiter", "error", err)
	}

	rl.mu.Lock()
	lim, ok := rl.local[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)
		rl.local[ip] = lim
	}
	rl.mu.Unlock()

	if lim.Allow() {
		return true, 0
	}
	return false, max(int(rl.window/time.Duration(rl.limit)/time.Second), 1)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
