// Package ratelimit provides process-local point-budget rate limiters.
// State lives in process memory; a horizontally scaled deployment needs a
// shared implementation behind the same domain.RateLimiter interface.
package ratelimit

import (
	"sync"
	"time"

	"github.com/you/blogauth/domain"
)

// Config describes one named limiter's budget: Points consumptions are
// allowed per Duration window; exceeding the budget blocks the key for
// BlockDuration (defaults to Duration when zero).
type Config struct {
	Points        int
	Duration      time.Duration
	BlockDuration time.Duration
}

type entry struct {
	windowStart  time.Time
	points       int
	blockedUntil time.Time
}

// MemoryLimiter implements domain.RateLimiter with mutex-guarded in-memory
// counters. Keys must be type-qualified by the caller so independent limiters
// never share a namespace.
type MemoryLimiter struct {
	cfg Config

	mu        sync.Mutex
	entries   map[string]*entry
	lastPrune time.Time

	now func() time.Time
}

// NewMemoryLimiter creates a limiter with the given budget.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = cfg.Duration
	}
	return &MemoryLimiter{
		cfg:     cfg,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Consume spends one point for key. It returns a *domain.RateLimitedError
// carrying the remaining wait when the budget is exhausted.
func (l *MemoryLimiter) Consume(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	e, ok := l.entries[key]
	if !ok {
		e = &entry{windowStart: now}
		l.entries[key] = e
	}

	if e.blockedUntil.After(now) {
		return &domain.RateLimitedError{RetryAfter: e.blockedUntil.Sub(now)}
	}

	if now.Sub(e.windowStart) >= l.cfg.Duration {
		e.windowStart = now
		e.points = 0
		e.blockedUntil = time.Time{}
	}

	e.points++
	if e.points > l.cfg.Points {
		e.blockedUntil = now.Add(l.cfg.BlockDuration)
		return &domain.RateLimitedError{RetryAfter: l.cfg.BlockDuration}
	}
	return nil
}

// pruneLocked drops keys whose window and block have both lapsed. Runs at
// most once per window to keep Consume cheap.
func (l *MemoryLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.cfg.Duration {
		return
	}
	l.lastPrune = now
	for key, e := range l.entries {
		if now.Sub(e.windowStart) >= l.cfg.Duration && !e.blockedUntil.After(now) {
			delete(l.entries, key)
		}
	}
}

var _ domain.RateLimiter = (*MemoryLimiter)(nil)
