// Package ratelimit bounds sensitive operations with fixed-window counters.
// It is best-effort, in-memory, single-process state: an abuse dampener, not
// a hard security boundary.
package ratelimit

import (
	"sync"
	"time"
)

// Scopes throttled by the auth endpoints.
const (
	ScopeLogin         = "login"
	ScopeRegister      = "register"
	ScopePasswordReset = "password_reset"
)

// Limit configures one scope: at most Max calls per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// DefaultLimits returns the per-scope limits used when config leaves them unset.
func DefaultLimits() map[string]Limit {
	return map[string]Limit{
		ScopeLogin:         {Max: 5, Window: 15 * time.Minute},
		ScopeRegister:      {Max: 5, Window: time.Hour},
		ScopePasswordReset: {Max: 3, Window: time.Hour},
	}
}

// Decision is the outcome of one Allow call. Denials never raise an error;
// callers act on Allowed and communicate ResetAt.
type Decision struct {
	Allowed bool
	ResetAt time.Time
}

// RetryAfter is the wait until the window resets, floored at zero.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if wait := d.ResetAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter counts calls per (scope, key) within fixed windows. Construct one
// per process and inject it into handlers; tests build their own instances.
type Limiter struct {
	mu     sync.Mutex
	limits map[string]Limit
	scopes map[string]map[string]*bucket
	clock  func() time.Time
}

// New builds a limiter with the given per-scope limits; scopes missing from
// the map fall back to DefaultLimits.
func New(limits map[string]Limit) *Limiter {
	return NewWithClock(limits, time.Now)
}

// NewWithClock allows deterministic windows in tests.
func NewWithClock(limits map[string]Limit, clock func() time.Time) *Limiter {
	merged := DefaultLimits()
	for scope, limit := range limits {
		if limit.Max > 0 && limit.Window > 0 {
			merged[scope] = limit
		}
	}
	return &Limiter{
		limits: merged,
		scopes: make(map[string]map[string]*bucket),
		clock:  clock,
	}
}

// Allow records one call for (scope, key) and decides whether it may proceed.
// A fresh or expired bucket restarts at count=1; otherwise the count is
// incremented and the call is allowed iff count <= max. Expired buckets in
// the scope are swept opportunistically.
func (l *Limiter) Allow(scope, key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit, ok := l.limits[scope]
	if !ok {
		limit = Limit{Max: 5, Window: 15 * time.Minute}
	}

	now := l.clock()
	buckets, ok := l.scopes[scope]
	if !ok {
		buckets = make(map[string]*bucket)
		l.scopes[scope] = buckets
	}
	for k, b := range buckets {
		if !now.Before(b.resetAt) {
			delete(buckets, k)
		}
	}

	b, ok := buckets[key]
	if !ok {
		b = &bucket{count: 1, resetAt: now.Add(limit.Window)}
		buckets[key] = b
	} else {
		b.count++
	}
	return Decision{Allowed: b.count <= limit.Max, ResetAt: b.resetAt}
}
