// Package ratelimit throttles writes per client with a token bucket.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// idleAfter is how long a client may stay silent before its bucket is dropped.
const idleAfter = 10 * time.Minute

// Config sizes the per-client bucket.
type Config struct {
	// RequestsPerMinute is both the sustained rate and the burst size.
	RequestsPerMinute int
	// SweepInterval is the minimum time between idle-bucket sweeps.
	SweepInterval time.Duration
	// Methods restricts limiting to these HTTP methods. Empty limits every method.
	Methods []string
}

// DefaultConfig limits writes only; reads are cheap and served from cache.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		SweepInterval:     5 * time.Minute,
		Methods:           []string{http.MethodPost, http.MethodPut, http.MethodDelete},
	}
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Limiter keeps one token bucket per client key.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time

	every   rate.Limit
	burst   int
	sweep   time.Duration
	methods map[string]struct{}

	rejected atomic.Int64
}

func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		every:   rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:   cfg.RequestsPerMinute,
		sweep:   cfg.SweepInterval,
	}
	if len(cfg.Methods) > 0 {
		l.methods = make(map[string]struct{}, len(cfg.Methods))
		for _, m := range cfg.Methods {
			l.methods[m] = struct{}{}
		}
	}
	return l
}

// Allow spends one token from key's bucket.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.sweep {
		l.forgetIdle(now)
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	if b.limiter.AllowN(now, 1) {
		return true
	}
	l.rejected.Add(1)
	return false
}

// retryAfter is the wait, in whole seconds, until key regains a token.
func (l *Limiter) retryAfter(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		return 1
	}
	now := l.now()
	r := b.limiter.ReserveN(now, 1)
	defer r.CancelAt(now)
	return max(1, int(r.DelayFrom(now).Round(time.Second)/time.Second))
}

func (l *Limiter) forgetIdle(now time.Time) int {
	n := 0
	for k, b := range l.buckets {
		if now.Sub(b.seen) > idleAfter {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}

func (l *Limiter) limits(method string) bool {
	if l.methods == nil {
		return true
	}
	_, ok := l.methods[method]
	return ok
}

// ActiveClients is the number of tracked buckets.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

type Metrics struct {
	Rejected    int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{Rejected: l.rejected.Load(), ClientCount: int64(l.ActiveClients())}
}

// Middleware rejects requests over the limit with 429 and a Retry-After hint.
// onLimit, when set, writes the response body instead of the plain-text default.
func (l *Limiter) Middleware(key func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.limits(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			k := key(r)
			if l.Allow(k) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter(k)))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
