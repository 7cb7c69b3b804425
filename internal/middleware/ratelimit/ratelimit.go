// Package ratelimit bounds per-client request rates on the mutating API
// endpoints. Data entry is bursty but human-paced; anything faster is a
// runaway script.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter counts requests per client address over a rolling minute.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window

	requestsPerMinute int
	stopCleanup       chan struct{}
	stopOnce          sync.Once
}

type window struct {
	start    time.Time
	requests int
}

func NewLimiter(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	l := &Limiter{
		clients:           make(map[string]*window),
		requestsPerMinute: requestsPerMinute,
		stopCleanup:       make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether another request from client fits in its current
// window.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.clients[client]
	if !ok || now.Sub(w.start) > time.Minute {
		l.clients[client] = &window{start: now, requests: 1}
		return true
	}

	w.requests++
	return w.requests <= l.requestsPerMinute
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			l.mu.Lock()
			for client, w := range l.clients {
				if w.start.Before(cutoff) {
					delete(l.clients, client)
				}
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			return
		}
	}
}

// Stop ends the background cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// Middleware rejects over-limit requests with 429. Read requests pass
// through untouched.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		client := clientAddr(r)
		if !l.Allow(client) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
