package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// LimiterConfig bounds what a single client IP may do: HTTP request rate and
// concurrent websocket connections.
type LimiterConfig struct {
	RequestsPerSecond float64       // token refill rate per IP
	Burst             int           // token bucket depth
	MaxConnsPerIP     int           // concurrent websocket connections per IP
	IdleEviction      time.Duration // how long an idle, disconnected IP is remembered
}

// DefaultLimiterConfig returns production-safe defaults.
var DefaultLimiterConfig = LimiterConfig{
	RequestsPerSecond: 10,
	Burst:             20,
	MaxConnsPerIP:     10,
	IdleEviction:      10 * time.Minute,
}

// clientState is everything tracked for one IP: its request bucket and how
// many websocket connections it currently holds.
type clientState struct {
	bucket   *rate.Limiter
	conns    int
	lastSeen time.Time
}

// ClientLimiter is the per-IP admission control for both the HTTP API and
// the websocket hub. One instance is shared between the router middleware
// and the hub so a client's requests and connections are accounted together.
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientState
	config  LimiterConfig

	stopChan chan struct{}
	stopOnce sync.Once

	rejectedCount uint64 // atomic
}

// NewClientLimiter creates a limiter and starts its eviction loop.
func NewClientLimiter(cfg LimiterConfig) *ClientLimiter {
	cl := &ClientLimiter{
		clients:  make(map[string]*clientState),
		config:   cfg,
		stopChan: make(chan struct{}),
	}
	go cl.evictLoop()
	return cl
}

// Stop halts the eviction loop.
func (cl *ClientLimiter) Stop() {
	cl.stopOnce.Do(func() {
		close(cl.stopChan)
	})
}

// state returns the entry for an IP, creating it on first contact. Caller
// holds the mutex.
func (cl *ClientLimiter) state(ip string) *clientState {
	client, ok := cl.clients[ip]
	if !ok {
		client = &clientState{
			bucket: rate.NewLimiter(rate.Limit(cl.config.RequestsPerSecond), cl.config.Burst),
		}
		cl.clients[ip] = client
	}
	client.lastSeen = time.Now()
	return client
}

// AllowRequest reports whether an HTTP request from this IP fits its budget.
func (cl *ClientLimiter) AllowRequest(ip string) bool {
	cl.mu.Lock()
	client := cl.state(ip)
	cl.mu.Unlock()

	if client.bucket.Allow() {
		return true
	}
	atomic.AddUint64(&cl.rejectedCount, 1)
	return false
}

// AcquireConn claims a websocket connection slot for this IP. Every
// successful acquire must be paired with a ReleaseConn.
func (cl *ClientLimiter) AcquireConn(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	client := cl.state(ip)
	if client.conns >= cl.config.MaxConnsPerIP {
		atomic.AddUint64(&cl.rejectedCount, 1)
		return false
	}
	client.conns++
	return true
}

// ReleaseConn returns a connection slot.
func (cl *ClientLimiter) ReleaseConn(ip string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if client, ok := cl.clients[ip]; ok && client.conns > 0 {
		client.conns--
	}
}

// Conns reports how many connections an IP currently holds.
func (cl *ClientLimiter) Conns(ip string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if client, ok := cl.clients[ip]; ok {
		return client.conns
	}
	return 0
}

// Rejected reports how many requests or connections were turned away.
func (cl *ClientLimiter) Rejected() uint64 {
	return atomic.LoadUint64(&cl.rejectedCount)
}

func (cl *ClientLimiter) evictLoop() {
	ticker := time.NewTicker(cl.config.IdleEviction)
	defer ticker.Stop()

	for {
		select {
		case <-cl.stopChan:
			return
		case <-ticker.C:
			cl.evict()
		}
	}
}

// evict forgets IPs that have been idle past the eviction window. IPs with
// live connections are never evicted, their slots are still claimed.
func (cl *ClientLimiter) evict() {
	cutoff := time.Now().Add(-cl.config.IdleEviction)

	cl.mu.Lock()
	defer cl.mu.Unlock()
	for ip, client := range cl.clients {
		if client.conns == 0 && client.lastSeen.Before(cutoff) {
			delete(cl.clients, ip)
		}
	}
}

// Middleware returns an HTTP middleware enforcing the request budget.
func (cl *ClientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cl.AllowRequest(GetClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClientIP extracts the client IP from a request. Proxy headers win over
// the socket address; they are only trustworthy behind a proxy that sets
// them.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// IsAllowedOrigin checks whether a websocket origin may connect. Terminal
// clients send no Origin header at all, so the empty origin is allowed;
// browser clients are restricted to localhost.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1") {
		return true
	}
	return false
}
