package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonMunkholm/cseguard/internal/config"
	"github.com/JonMunkholm/cseguard/internal/logging"
	"github.com/JonMunkholm/cseguard/internal/metrics"
	"golang.org/x/time/rate"
)

// bucketTTL is how long an idle client's bucket is kept.
const bucketTTL = 10 * time.Minute

// RateLimit returns middleware that applies a per-IP token bucket.
// It should run after TrustedRealIP so RemoteAddr is the client address.
// The sweeper goroutine stops when ctx is done.
func RateLimit(ctx context.Context, cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := newIPLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), cfg.Burst, bucketTTL)
	go limiter.sweep(ctx)

	retryAfter := strconv.Itoa(int(limiter.retryAfter().Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.allow(ip) {
				metrics.RateLimitRejectedTotal.Inc()
				logging.FromContext(r.Context()).Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded","code":"RATE001"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type ipLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	lim  *rate.Limiter
	last time.Time
}

func newIPLimiter(limit rate.Limit, burst int, ttl time.Duration) *ipLimiter {
	return &ipLimiter{
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		buckets: make(map[string]*bucket),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.last = time.Now()
	return b.lim.Allow()
}

// retryAfter is the time for one token to refill, at least one second.
func (l *ipLimiter) retryAfter() time.Duration {
	if l.limit <= 0 {
		return time.Minute
	}
	d := time.Duration(float64(time.Second) / float64(l.limit))
	if d < time.Second {
		return time.Second
	}
	return d
}

// sweep drops buckets idle for longer than ttl.
func (l *ipLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictIdle(time.Now())
		}
	}
}

func (l *ipLimiter) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cut := now.Add(-l.ttl)
	for ip, b := range l.buckets {
		if b.last.Before(cut) {
			delete(l.buckets, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
