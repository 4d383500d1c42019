package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/utils"
)

// RateLimitConfig configures the per-IP token buckets.
type RateLimitConfig struct {
	RPS           float64 // sustained requests per second per IP; <= 0 disables limiting
	Burst         int
	MaxEntries    int           // sweep idle buckets once this many IPs are tracked
	SweepInterval time.Duration // how often idle buckets are dropped
	IdleTTL       time.Duration // a bucket unused for this long is dropped
	TrustProxy    bool          // resolve IP from proxy headers
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newIPLimiter(cfg RateLimitConfig) *ipLimiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &ipLimiter{
		cfg:       cfg,
		visitors:  make(map[string]*visitor, 64),
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval ||
		(l.cfg.MaxEntries > 0 && len(l.visitors) >= l.cfg.MaxEntries) {
		l.sweepLocked(now)
	}

	v := l.visitors[ip]
	if v == nil {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (l *ipLimiter) sweepLocked(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.cfg.IdleTTL {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

// RateLimit answers 429 once a caller exceeds its bucket.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	l := newIPLimiter(cfg)
	limitStr := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			lim := l.get(utils.ClientIP(r, l.cfg.TrustProxy), now)

			w.Header().Set("X-RateLimit-Limit", limitStr)
			if !lim.AllowN(now, 1) {
				retry := int(math.Ceil(1 / l.cfg.RPS))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			remaining := int(lim.TokensAt(now))
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}
