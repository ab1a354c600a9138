// Package ratelimit is the per-tenant/per-IP token-bucket limiter enforced
// at the HTTP boundary: a visitor map keyed by tenant ID (falling back to
// client IP when no tenant is present), each with its own
// golang.org/x/time/rate.Limiter, swept periodically to bound memory.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/econdata/econfed/types"
)

// Limiter tracks one rate.Limiter per key (tenant ID or client IP).
type Limiter struct {
	rps   float64
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New constructs a Limiter allowing rps requests/sec with the given burst,
// per key. Call Run in a background goroutine to sweep idle visitors.
func New(rps float64, burst int) *Limiter {
	return &Limiter{rps: rps, burst: burst, visitors: make(map[string]*visitor)}
}

// Run sweeps visitors idle for more than 3 minutes every minute, until ctx
// is canceled. Intended to run in its own goroutine for the server's
// lifetime.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if time.Since(v.lastSeen) > 3*time.Minute {
			delete(l.visitors, key)
		}
	}
}

// Allow reports whether a request under key may proceed, consuming one
// token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()
	return v.limiter.Allow()
}

// KeyFor derives the rate-limit key for an HTTP request: the tenant ID set
// by JWT auth if present, otherwise the client IP.
func KeyFor(r *http.Request) string {
	if tenantID, ok := types.TenantID(r.Context()); ok {
		return "tenant:" + tenantID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// Middleware returns an http middleware enforcing l against each request,
// responding 429 when the bucket is empty.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(KeyFor(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"error":{"code":"RATE_LIMITED","message":"rate limit exceeded"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
