package web

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxTrackedClients bounds limiter memory; the least recently seen client
// is forgotten first.
const maxTrackedClients = 10000

// rateLimiter gives each client IP a fixed budget of requests per window.
type rateLimiter struct {
	mu      sync.Mutex
	budgets *expirable.LRU[string, *budget]
	rate    int
	window  time.Duration
}

type budget struct {
	start time.Time
	used  int
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		budgets: expirable.NewLRU[string, *budget](maxTrackedClients, nil, 2*window),
		rate:    rate,
		window:  window,
	}
}

// allow consumes one request from ip's budget, reporting false when it is spent.
func (rl *rateLimiter) allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.budgets.Get(ip)
	if !ok || now.Sub(b.start) >= rl.window {
		b = &budget{start: now}
		rl.budgets.Add(ip, b)
	}
	if b.used >= rl.rate {
		return false
	}
	b.used++
	return true
}

// stop forgets every tracked client.
func (rl *rateLimiter) stop() {
	rl.budgets.Purge()
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(rl.window.Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", retryAfter)
			respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
