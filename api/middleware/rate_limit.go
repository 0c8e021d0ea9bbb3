package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/instafit/fieldops-backend/api/responses"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
)

// rateLimiterStore is satisfied by *redis.Client; the scope is namespaced by
// the store.
type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy defines the per-IP throttle for one traffic surface.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int
}

func NewRateLimitPolicy(name string, window time.Duration, limit int) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	return RateLimitPolicy{name: name, window: window, limit: limit}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p RateLimitPolicy) scope(ip string) string {
	return p.name + ":" + ip
}

// RateLimit enforces policy per client IP. With a nil store each API
// instance keeps its own token buckets; a disabled policy passes every
// request through.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() {
			return next
		}
		if store == nil {
			store = newLocalLimiter()
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(ip), int64(policy.limit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":         policy.name,
						"ip":             ip,
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					}), "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// localIdleSweep bounds how many idle buckets accumulate before a sweep.
const localIdleSweep = 4096

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter refills limit tokens per window, so a burst of limit
// requests is allowed and the budget recovers gradually.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	now     func() time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{buckets: map[string]*localBucket{}, now: time.Now}
}

func (l *localLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if len(l.buckets) >= localIdleSweep {
		for key, b := range l.buckets {
			if now.Sub(b.lastSeen) > window {
				delete(l.buckets, key)
			}
		}
	}
	b, ok := l.buckets[scope]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), int(limit))}
		l.buckets[scope] = b
	}
	b.lastSeen = now
	if b.limiter.AllowN(now, 1) {
		return true, 0, nil
	}
	return false, limit + 1, nil
}
