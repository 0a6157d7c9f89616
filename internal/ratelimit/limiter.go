// Package ratelimit provides per-key token bucket rate limiting for the
// widget's regenerate action and the MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLimited is returned by Check when a key has no tokens left.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter implements a per-key token bucket rate limiter.
// Each key (a session ID or a tool name) gets its own bucket with the
// configured rate and burst. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow reports whether a request for key may proceed, consuming a token
// if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens += l.rate * elapsed
		if b.tokens > float64(l.burst) {
			b.tokens = float64(l.burst)
		}
		b.lastCheck = now
	}

	if b.tokens < 1.0 {
		return false
	}

	b.tokens--
	return true
}

// Check is Allow returning ErrLimited instead of false.
func (l *Limiter) Check(key string) error {
	if !l.Allow(key) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrLimited, key)
	}
	return nil
}

// Prune drops buckets untouched for longer than idle. Sessions expire, so
// without pruning their buckets would accumulate.
func (l *Limiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.nowFunc().Add(-idle)
	removed := 0
	for key, b := range l.buckets {
		if b.lastCheck.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// ToolLimiters maps MCP tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"posterior_update":     NewLimiter(10.0, 50),     // 600/minute, burst 50
		"posterior_regenerate": NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	return limiter.Check(toolName)
}
