package server

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/patrickverol/docrag-go/internal/logging"
)

// Rate-limit defaults for the query API. Query requests fan out to the
// embedder and the chat model, so the sustained rate is kept modest; the
// burst absorbs a user re-submitting a question a few times.
const (
	defaultRateLimit = 10
	defaultRateBurst = 20

	// limiterStaleAfter is how long an idle IP keeps its bucket before the
	// eviction pass drops it.
	limiterStaleAfter = 5 * time.Minute

	// limiterEvictEvery is the interval between eviction passes.
	limiterEvictEvery = time.Minute
)

// ipLimiter holds the token bucket and bookkeeping for one remote IP.
type ipLimiter struct {
	// limiter is the per-IP token bucket.
	limiter *rate.Limiter
	// lastSeen is updated on every request from this IP and drives eviction.
	lastSeen time.Time
	// rejected counts requests from this IP turned away since the bucket
	// was created. Logged when the entry is evicted.
	rejected int
}

// rateLimiter is an HTTP middleware that enforces a per-IP token-bucket rate
// limit on the query API. Idle IP entries are evicted periodically to bound
// memory usage.
type rateLimiter struct {
	// mu protects the limiters map.
	mu sync.Mutex
	// limiters maps remote IP to its per-IP state.
	limiters map[string]*ipLimiter
	// rps is the sustained request rate allowed per IP (requests/second).
	rps rate.Limit
	// burst is the maximum instantaneous burst per IP.
	burst int
	// log is the structured logger for rate-limit events.
	log *slog.Logger
}

// newRateLimiter constructs a rateLimiter and starts the background eviction
// goroutine. The goroutine exits when the returned stop function is called.
// rps and burst are the per-IP token-bucket parameters.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		limiters: make(map[string]*ipLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		log:      log,
	}

	stopCh := make(chan struct{})
	go rl.evictLoop(stopCh)

	return rl, func() { close(stopCh) }
}

// allow consumes a token for the given IP, creating its bucket on first
// sight. It returns false when the request must be rejected.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()

	if !entry.limiter.Allow() {
		entry.rejected++
		return false
	}
	return true
}

// evictLoop runs eviction passes until stopCh is closed.
func (rl *rateLimiter) evictLoop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(limiterEvictEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

// evict drops IP entries idle for longer than limiterStaleAfter. Entries
// that had rejections are logged on the way out so abusive sources remain
// visible after their state is gone.
func (rl *rateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-limiterStaleAfter)
	for ip, entry := range rl.limiters {
		if !entry.lastSeen.Before(cutoff) {
			continue
		}
		if entry.rejected > 0 {
			rl.log.Debug("rate limiter evicted noisy client",
				slog.String("ip", ip),
				slog.Int("rejected", entry.rejected),
			)
		}
		delete(rl.limiters, ip)
	}
}

// middleware returns an http.Handler that enforces the rate limit before
// delegating to next. Requests that exceed the limit receive 429 Too Many
// Requests with a Retry-After header and a structured WARN log entry.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if !rl.allow(ip) {
			log := logging.FromContext(r.Context())
			log.Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the remote IP from the request, stripping the port.
// It does not trust X-Forwarded-For since this server is local-only.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[:i]
	}
	return addr
}
