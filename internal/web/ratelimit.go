package web

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client keeps its bucket.
const visitorTTL = 3 * time.Minute

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter allows perMinute sustained requests per IP with burst on top.
func newRateLimiter(perMinute, burst int) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup removes idle visitors every minute until stop is called.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if now.Sub(v.lastSeen) > visitorTTL {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow reports whether ip may make a request now and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	return v.limiter.Allow()
}

// middleware rejects requests over the limit through respond.
func (rl *rateLimiter) middleware(respond func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// RemoteAddr is already resolved by TrustedRealIP
			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}

			if !rl.allow(ip) {
				w.Header().Set("Retry-After", "60")
				respond(w, r, errRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
