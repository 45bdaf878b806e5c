// Package ratelimit throttles requests per client key with token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long an unused bucket is kept before it is pruned.
const idleTTL = 10 * time.Minute

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key (e.g. client IP). Buckets refill at
// perMinute tokens per minute and hold at most burst tokens.
type Limiter struct {
	mu        sync.Mutex
	entries   map[string]*entry
	perMinute int
	burst     int
	lastPrune time.Time
	now       func() time.Time // injectable clock for testing
}

// New creates a Limiter. A non-positive perMinute disables limiting; a
// non-positive burst defaults to perMinute.
func New(perMinute, burst int) *Limiter {
	if burst <= 0 {
		burst = perMinute
	}
	return &Limiter{
		entries:   make(map[string]*entry),
		perMinute: perMinute,
		burst:     burst,
		now:       time.Now,
	}
}

// Enabled reports whether the limiter enforces anything.
func (l *Limiter) Enabled() bool {
	return l != nil && l.perMinute > 0
}

// getEntry returns the bucket for key, creating one if needed.
// Must be called with l.mu held.
func (l *Limiter) getEntry(key string, now time.Time) *entry {
	e, ok := l.entries[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60), l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e
}

// prune drops buckets idle for longer than idleTTL.
// Must be called with l.mu held.
func (l *Limiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < time.Minute {
		return
	}
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > idleTTL {
			delete(l.entries, k)
		}
	}
	l.lastPrune = now
}

// Allow reports whether a request for key may proceed and consumes a token
// when it may.
func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	return l.getEntry(key, now).lim.AllowN(now, 1)
}

// Status returns the bucket size, the whole tokens left for key and the
// time at which the bucket will be full again.
func (l *Limiter) Status(key string) (limit int, remaining int, resetAt time.Time) {
	if !l.Enabled() {
		return 0, 0, time.Time{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e := l.getEntry(key, now)
	tokens := e.lim.TokensAt(now)

	limit = l.burst
	remaining = int(tokens)
	if remaining < 0 {
		remaining = 0
	}
	deficit := float64(l.burst) - tokens
	if deficit <= 0 {
		resetAt = now
	} else {
		perSecond := float64(l.perMinute) / 60
		resetAt = now.Add(time.Duration(deficit / perSecond * float64(time.Second)))
	}
	return
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
