package ratelimit

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"admitgate/lib/api/cont"
	"admitgate/lib/api/response"
	"admitgate/lib/sl"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// idleTTL is how long an unused bucket is kept. A bucket idle that long has
// refilled, so dropping it does not change any caller's allowance.
const idleTTL = 10 * time.Minute

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// buckets holds one limiter per key and sweeps idle ones at most once per
// idle period, on access.
type buckets struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
	items     map[string]*bucket
}

func newBuckets(perSecond float64, burst int, idle time.Duration, now func() time.Time) *buckets {
	return &buckets{
		limit:     rate.Limit(perSecond),
		burst:     burst,
		idle:      idle,
		now:       now,
		lastSweep: now(),
		items:     make(map[string]*bucket),
	}
}

func (b *buckets) allow(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if now.Sub(b.lastSweep) >= b.idle {
		b.sweep(now)
	}
	item, ok := b.items[key]
	if !ok {
		item = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.items[key] = item
	}
	item.seen = now
	return item.limiter.AllowN(now, 1)
}

// sweep must be called with mu held.
func (b *buckets) sweep(now time.Time) {
	for key, item := range b.items {
		if now.Sub(item.seen) >= b.idle {
			delete(b.items, key)
		}
	}
	b.lastSweep = now
}

func (b *buckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// PerCaller gives every authenticated caller its own token bucket, falling
// back to the remote address. A non-positive perSecond disables limiting.
func PerCaller(log *slog.Logger, perSecond float64, burst int) func(next http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	return limit(log, newBuckets(perSecond, burst, idleTTL, time.Now))
}

func limit(log *slog.Logger, limiters *buckets) func(next http.Handler) http.Handler {
	logger := log.With(sl.Module("middleware.ratelimit"))
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if caller := cont.GetCaller(r.Context()); caller != nil {
				key = caller.UserId
			}
			if !limiters.allow(key) {
				logger.Warn("rate limited", slog.String("key", key), slog.String("path", r.URL.Path))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("Too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
