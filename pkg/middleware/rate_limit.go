package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "pisos/pkg/errors"
	httputil "pisos/pkg/http"
	"pisos/pkg/logger"

	"github.com/jellydator/ttlcache/v3"
)

type ClientKeyExtractor func(r *http.Request) string

// RateLimiter counts requests per client in fixed windows. A window starts on the
// client's first request and expires with its cache entry.
type RateLimiter struct {
	mu        sync.Mutex
	windows   *ttlcache.Cache[string, int]
	limit     int
	window    time.Duration
	extractor ClientKeyExtractor
	log       *logger.Logger
}

func NewRateLimiter(limit int, window time.Duration, extractor ClientKeyExtractor, log *logger.Logger) *RateLimiter {
	if extractor == nil {
		extractor = ClientIP
	}

	windows := ttlcache.New(
		ttlcache.WithTTL[string, int](window),
		ttlcache.WithDisableTouchOnHit[string, int](),
	)
	go windows.Start()

	return &RateLimiter{
		windows:   windows,
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
	}
}

func (rl *RateLimiter) Stop() {
	rl.windows.Stop()
}

func (rl *RateLimiter) Allow(key string) bool {
	if key == "" || rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	count := 0
	if item := rl.windows.Get(key); item != nil {
		count = item.Value()
	}
	if count >= rl.limit {
		return false
	}

	if count == 0 {
		rl.windows.Set(key, 1, ttlcache.DefaultTTL)
	} else {
		// keep the window's original expiry
		rl.windows.Set(key, count+1, ttlcache.PreviousOrDefaultTTL)
	}
	return true
}

func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.extractor(r)
			if !limiter.Allow(key) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", requestID(r),
					"client", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
				_ = httputil.WriteError(w, apperrors.New("RATE_LIMITED", "Rate limit exceeded", http.StatusTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
