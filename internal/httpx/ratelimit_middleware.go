package httpx

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type rateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies a token bucket per client address.
type RateLimitMiddleware struct {
	limiters   map[string]*rateLimiter
	mu         sync.Mutex
	rate       rate.Limit
	burst      int
	trustProxy bool
	cleanup    time.Duration
	done       chan struct{}
	once       sync.Once
}

// NewRateLimitMiddleware keys buckets on the connection's remote host. With
// trustProxy the first X-Forwarded-For entry is used instead, which is only
// safe when a proxy in front overwrites that header.
func NewRateLimitMiddleware(rps float64, burst int, trustProxy bool) *RateLimitMiddleware {
	rl := &RateLimitMiddleware{
		limiters:   make(map[string]*rateLimiter),
		rate:       rate.Limit(rps),
		burst:      burst,
		trustProxy: trustProxy,
		cleanup:    5 * time.Minute,
		done:       make(chan struct{}),
	}

	go rl.cleanupLimiters()
	return rl
}

// Close stops the background cleanup.
func (rl *RateLimitMiddleware) Close() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimitMiddleware) cleanupLimiters() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		for key, limiter := range rl.limiters {
			if time.Since(limiter.lastSeen) > rl.cleanup {
				delete(rl.limiters, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimitMiddleware) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = &rateLimiter{
			limiter:  rate.NewLimiter(rl.rate, rl.burst),
			lastSeen: time.Now(),
		}
		rl.limiters[key] = limiter
	} else {
		limiter.lastSeen = time.Now()
	}

	return limiter.limiter
}

func (rl *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(clientKey(r, rl.trustProxy)).Allow() {
			w.Header().Set("Retry-After", "1")
			JSONError(w, r, http.StatusTooManyRequests, "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request, trustProxy bool) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); trustProxy && forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
