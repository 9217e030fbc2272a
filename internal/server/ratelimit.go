package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"jobfit/internal/errors"
	"jobfit/internal/observability"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key (IP or API key).
// Requests may cost more than one token: a recommendation runs a simulation
// per candidate skill and is charged accordingly.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	rate    rate.Limit
	burst   int
	logger  *errors.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewRateLimiter allows requestsPerMin tokens per key with a bucket of burst.
func NewRateLimiter(requestsPerMin, burst int, logger *errors.Logger) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*limiterEntry),
		rate:    rate.Limit(float64(requestsPerMin) / 60.0),
		burst:   burst,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go rl.evictLoop(limiterIdleTTL)
	return rl
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.clients[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// clampCost keeps a request payable: a cost above the bucket size could never
// be admitted.
func (rl *RateLimiter) clampCost(cost int) int {
	return min(max(cost, 1), max(rl.burst, 1))
}

// Allow spends cost tokens of key's bucket if they are available.
func (rl *RateLimiter) Allow(key string, cost int) bool {
	return rl.limiterFor(key).AllowN(time.Now(), rl.clampCost(cost))
}

// retryAfter estimates the seconds until key can pay cost again.
func (rl *RateLimiter) retryAfter(key string, cost int) int {
	r := rl.limiterFor(key).ReserveN(time.Now(), rl.clampCost(cost))
	defer r.Cancel()
	return max(1, int(math.Ceil(r.Delay().Seconds())))
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"active_limiters": len(rl.clients),
		"rate_per_minute": float64(rl.rate) * 60.0,
		"burst_capacity":  rl.burst,
	}
}

func (rl *RateLimiter) evictLoop(idle time.Duration) {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(idle)
		case <-rl.done:
			return
		}
	}
}

// evictIdle drops buckets not used for longer than idle.
func (rl *RateLimiter) evictIdle(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	for key, entry := range rl.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
	if rl.logger != nil {
		rl.logger.Debug("Rate limiter eviction completed", "remaining_limiters", len(rl.clients))
	}
}

// Close stops the eviction goroutine.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

// rateLimitMiddleware charges each request cost tokens of its client's bucket
// and rejects it with 429 when the bucket is short.
func (s *Server) rateLimitMiddleware(metrics *observability.Metrics, cost int) func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" || s.RateLimiter.Allow(key, cost) {
				next(w, r)
				return
			}

			limitType, _, _ := strings.Cut(key, ":")
			metrics.RecordRateLimitHit(r.Context(), r.URL.Path, limitType)
			s.Logger.Info("Rate limit exceeded",
				"limit_type", limitType,
				"endpoint", r.URL.Path,
				"cost", cost,
				"client_ip", getClientIP(r),
				"request_id", requestIDFrom(r.Context()))
			w.Header().Set("Retry-After", strconv.Itoa(s.RateLimiter.retryAfter(key, cost)))
			writeErrorResponse(w, r, "Rate limit exceeded", "Too many requests", "", http.StatusTooManyRequests)
		}
	}
}

// getRateLimitKey picks the bucket for a request: the API key when limiting by
// key and one is present, else the client IP when limiting by IP.
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if apiKey := requestAPIKey(r); apiKey != "" {
			return "api:" + apiKey
		}
	}
	if byIP {
		return "ip:" + getClientIP(r)
	}
	return ""
}

// requestAPIKey reads X-API-Key, falling back to a Bearer token.
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return key
	}
	return ""
}

// getClientIP prefers proxy headers over the socket address.
func getClientIP(r *http.Request) string {
	if ip := parseFirstIP(r.Header.Get("X-Forwarded-For")); ip != "" {
		return ip
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP returns the first valid IP of a comma-separated list.
func parseFirstIP(ips string) string {
	for _, ip := range strings.Split(ips, ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}
	return ""
}
