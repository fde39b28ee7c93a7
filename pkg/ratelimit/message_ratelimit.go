package ratelimit

import (
	"sync"
	"time"
)

// burst tracks one user's sends inside the current window and any cooldown
// imposed after the limit was exceeded.
type burst struct {
	count         int
	start         time.Time
	cooldownUntil time.Time
}

// MessageRateLimiter allows maxMessages per window per user. Exceeding the
// limit starts a cooldown during which every send is rejected; the first send
// after the cooldown opens a fresh window.
type MessageRateLimiter struct {
	mu          sync.Mutex
	bursts      map[string]*burst
	maxMessages int
	window      time.Duration
	cooldown    time.Duration
	now         func() time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMessageRateLimiter starts the limiter and its janitor goroutine.
func NewMessageRateLimiter(maxMessages int, window, cooldown time.Duration) *MessageRateLimiter {
	rl := &MessageRateLimiter{
		bursts:      make(map[string]*burst),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
	go rl.janitor(30 * time.Second)
	return rl
}

// Allow counts one send by userID and reports whether it may proceed.
func (rl *MessageRateLimiter) Allow(userID string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.bursts[userID]
	if !ok {
		rl.bursts[userID] = &burst{count: 1, start: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		*b = burst{count: 1, start: now}
		return true
	}

	if now.Sub(b.start) > rl.window {
		b.count = 1
		b.start = now
		return true
	}

	b.count++
	if b.count > rl.maxMessages {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}
	return true
}

// CooldownSeconds is how long userID must still wait, rounded up. Zero when
// no cooldown is active.
func (rl *MessageRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.bursts[userID]
	if !ok || b.cooldownUntil.IsZero() {
		return 0
	}
	remaining := b.cooldownUntil.Sub(rl.now())
	if remaining <= 0 {
		return 0
	}
	return ceilSeconds(remaining)
}

// Stop ends the janitor goroutine. Safe to call more than once.
func (rl *MessageRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *MessageRateLimiter) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evict()
		case <-rl.stop:
			return
		}
	}
}

func (rl *MessageRateLimiter) evict() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.bursts {
		windowDone := now.Sub(b.start) > rl.window
		cooldownDone := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)
		if windowDone && cooldownDone {
			delete(rl.bursts, userID)
		}
	}
}
