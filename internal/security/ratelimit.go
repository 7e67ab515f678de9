package security

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// bucketIdleTimeout is how long an untouched client bucket survives before
// the cleanup pass drops it.
const bucketIdleTimeout = 10 * time.Minute

// RateLimiter applies a per-client token bucket over the routing endpoints.
// Clients are keyed by API key when present, remote IP otherwise.
type RateLimiter struct {
	enabled        bool
	requestsPerMin int
	burstSize      int

	mu      sync.Mutex
	buckets map[string]*tokenBucket

	stop    chan struct{}
	stopped sync.Once
	logger  *logrus.Logger
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a limiter refilling requestsPerMin tokens per minute
// up to burstSize. A disabled limiter allows everything.
func NewRateLimiter(enabled bool, requestsPerMin, burstSize int, logger *logrus.Logger) *RateLimiter {
	if burstSize <= 0 {
		burstSize = requestsPerMin
	}

	rl := &RateLimiter{
		enabled:        enabled,
		requestsPerMin: requestsPerMin,
		burstSize:      burstSize,
		buckets:        make(map[string]*tokenBucket),
		stop:           make(chan struct{}),
		logger:         logger,
	}

	if enabled {
		go rl.cleanupLoop()
	}

	return rl
}

// Allow consumes one token for the client key.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	bucket, exists := rl.buckets[key]
	if !exists {
		bucket = &tokenBucket{tokens: float64(rl.burstSize), lastRefill: now}
		rl.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.lastRefill)
	bucket.tokens += elapsed.Minutes() * float64(rl.requestsPerMin)
	if bucket.tokens > float64(rl.burstSize) {
		bucket.tokens = float64(rl.burstSize)
	}
	bucket.lastRefill = now

	if bucket.tokens < 1 {
		return false
	}
	bucket.tokens--
	return true
}

// Stop ends the background cleanup goroutine. Safe to call multiple times.
func (rl *RateLimiter) Stop() {
	rl.stopped.Do(func() { close(rl.stop) })
}

// Middleware rejects over-limit requests with 429 and a Retry-After hint.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := extractToken(r)
			if key == "" {
				key = clientIP(r)
			}

			if !rl.Allow(key) {
				rl.logger.WithFields(logrus.Fields{
					"path":      r.URL.Path,
					"remote_ip": clientIP(r),
				}).Warn("Rate limit exceeded")

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"message":"Rate limit exceeded","type":"rate_limit_error","code":"too_many_requests"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.requestsPerMin <= 0 {
		return 60
	}
	seconds := 60 / rl.requestsPerMin
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(bucketIdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-bucketIdleTimeout)
	for key, bucket := range rl.buckets {
		if bucket.lastRefill.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}
