package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepEach = time.Minute
)

// bucket holds fractional tokens so slow refill rates still accrue.
type bucket struct {
	tokens float64
	seen   time.Time
}

// Limiter is a keyed token-bucket limiter. Idle keys are swept lazily on
// Allow, so it owns no goroutine.
type Limiter struct {
	mu        sync.Mutex
	burst     float64
	perSec    float64
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func NewLimiter(burst, perSec int) *Limiter {
	return &Limiter{
		burst:   float64(burst),
		perSec:  float64(perSec),
		buckets: map[string]*bucket{},
		now:     time.Now,
	}
}

// Allow spends one token from key's bucket.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= limiterSweepEach {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, seen: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.seen).Seconds()*l.perSec)
	b.seen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.seen) > limiterIdleTTL {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}

// retryAfter is the whole number of seconds until one token refills.
func (l *Limiter) retryAfter() int {
	if l.perSec <= 0 {
		return 60
	}
	return int(math.Ceil(1 / l.perSec))
}

// RateLimitMiddleware limits each principal+client IP pair to burst
// requests, refilled at perSec. Public paths are exempt.
func RateLimitMiddleware(burst, perSec int) func(http.Handler) http.Handler {
	lim := NewLimiter(burst, perSec)
	wait := strconv.Itoa(lim.retryAfter())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			key := GetPrincipalFromContext(r.Context()) + ":" + clientIP(r.RemoteAddr)
			if !lim.Allow(key) {
				w.Header().Set("Retry-After", wait)
				writeDetail(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP drops the ephemeral port so one host maps to one bucket.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
