// Package ratelimit throttles login attempts per client IP and message
// sends per user.
//
// The package depends on nothing else in the project so both handlers and
// middleware can import it.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// LoginLimiter decides whether another login attempt from a key (client IP)
// is allowed. Implementations are safe for concurrent use.
type LoginLimiter interface {
	// Allow counts one attempt and reports whether it is within the limit.
	Allow(key string) bool
	// Reset forgets the key, called after a successful login.
	Reset(key string)
	// RetryAfterSeconds is the Retry-After value for a rejected key.
	RetryAfterSeconds(key string) int
}

// window is a fixed counting window for one key.
type window struct {
	count int
	start time.Time
}

// MemoryLoginLimiter is a fixed-window limiter kept in process memory.
// It is the default when no Redis is configured.
type MemoryLoginLimiter struct {
	mu          sync.Mutex
	windows     map[string]*window
	maxAttempts int
	period      time.Duration
	now         func() time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMemoryLoginLimiter allows maxAttempts per period per key and starts a
// janitor goroutine that evicts expired windows every minute. Call Stop to end it.
func NewMemoryLoginLimiter(maxAttempts int, period time.Duration) *MemoryLoginLimiter {
	l := &MemoryLoginLimiter{
		windows:     make(map[string]*window),
		maxAttempts: maxAttempts,
		period:      period,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
	go l.janitor(time.Minute)
	return l
}

func (l *MemoryLoginLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) > l.period {
		l.windows[key] = &window{count: 1, start: now}
		return true
	}

	w.count++
	return w.count <= l.maxAttempts
}

func (l *MemoryLoginLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *MemoryLoginLimiter) RetryAfterSeconds(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		return 0
	}
	remaining := l.period - l.now().Sub(w.start)
	if remaining <= 0 {
		return 0
	}
	return ceilSeconds(remaining)
}

// Stop ends the janitor goroutine. Safe to call more than once.
func (l *MemoryLoginLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *MemoryLoginLimiter) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evict()
		case <-l.stop:
			return
		}
	}
}

func (l *MemoryLoginLimiter) evict() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.start) > l.period {
			delete(l.windows, key)
		}
	}
}

// ExtractIP returns the client IP of a request. Proxy headers are resolved
// upstream by chi's RealIP middleware, which rewrites RemoteAddr.
func ExtractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func ceilSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// FormatRetryMessage renders a wait time for error messages, e.g. "2 minute(s)".
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
