// Package security provides rate limiting for login, API, upload and form
// submission endpoints.
package security

import (
	"sync"
	"time"
)

// RateLimiter implements a sliding-window rate limiter keyed by an arbitrary
// identifier (user ID, IP address or anonymous tag).
//
// Unlike a fixed calendar window, the sliding window counts requests in the
// moving range [now-window, now], so a burst at a window boundary cannot
// double the admitted rate. Thread-safe; the prune-then-append sequence for
// a bucket runs under the limiter mutex so two concurrent calls can never
// both observe room for the last slot.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time

	maxRequests int           // Requests admitted per window per identifier
	window      time.Duration // Sliding window duration

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewRateLimiter creates a sliding-window rate limiter.
//
// Parameters:
//   - maxRequests: Requests admitted per window. Zero always denies.
//   - window: Sliding window duration.
//
// Example:
//
//	// Allow 5 login attempts per minute
//	limiter := security.NewRateLimiter(5, time.Minute)
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:     make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow reports whether a request from the given identifier is admitted.
// An admitted request is recorded; a denied request is not, so denials do
// not extend the lockout. Denial is a normal outcome, never an error.
func (rl *RateLimiter) Allow(identifier string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	// Sweep every bucket and drop the ones that emptied, so identifiers
	// seen once do not accumulate forever.
	for id, stamps := range rl.buckets {
		pruned := pruneBefore(stamps, cutoff)
		if len(pruned) == 0 {
			delete(rl.buckets, id)
		} else {
			rl.buckets[id] = pruned
		}
	}

	stamps := rl.buckets[identifier]
	if len(stamps) >= rl.maxRequests || rl.maxRequests == 0 {
		return false
	}

	rl.buckets[identifier] = append(stamps, now)
	return true
}

// Reset removes the rate limit state for a given identifier.
// Useful for clearing a throttle after a successful login.
func (rl *RateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, identifier)
}

// pruneBefore returns the suffix of stamps at or after cutoff.
// Stamps are appended in order, so the first surviving index bounds the rest.
func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	for i, ts := range stamps {
		if !ts.Before(cutoff) {
			return stamps[i:]
		}
	}
	return nil
}

// AccountLockout tracks failed login attempts per account and locks the
// account once the threshold is crossed. This complements the per-IP rate
// limiter: an attacker rotating addresses still runs into the per-account
// counter.
type AccountLockout struct {
	mu       sync.Mutex
	lockouts map[string]*lockoutState

	threshold int           // Failed attempts before lockout
	duration  time.Duration // How long the account stays locked

	now func() time.Time
}

type lockoutState struct {
	failedAttempts int
	lockedUntil    time.Time
	lastAttempt    time.Time
}

// NewAccountLockout creates an account lockout tracker.
func NewAccountLockout(threshold int, duration time.Duration) *AccountLockout {
	return &AccountLockout{
		lockouts:  make(map[string]*lockoutState),
		threshold: threshold,
		duration:  duration,
		now:       time.Now,
	}
}

// RecordFailedAttempt records a failed login attempt for the identifier.
// Returns true if this attempt locked the account.
func (al *AccountLockout) RecordFailedAttempt(identifier string) bool {
	al.mu.Lock()
	defer al.mu.Unlock()

	now := al.now()
	state, exists := al.lockouts[identifier]
	if !exists {
		al.lockouts[identifier] = &lockoutState{failedAttempts: 1, lastAttempt: now}
		return false
	}

	// A quiet half hour resets the counter.
	if now.Sub(state.lastAttempt) > 30*time.Minute {
		state.failedAttempts = 1
		state.lastAttempt = now
		return false
	}

	state.failedAttempts++
	state.lastAttempt = now

	if state.failedAttempts >= al.threshold {
		state.lockedUntil = now.Add(al.duration)
		return true
	}
	return false
}

// IsLocked reports whether the account is currently locked.
// An expired lockout is cleared on the way out.
func (al *AccountLockout) IsLocked(identifier string) bool {
	al.mu.Lock()
	defer al.mu.Unlock()

	state, exists := al.lockouts[identifier]
	if !exists {
		return false
	}

	if al.now().After(state.lockedUntil) {
		state.failedAttempts = 0
		state.lockedUntil = time.Time{}
		return false
	}
	return !state.lockedUntil.IsZero()
}

// ResetAttempts clears the failed attempt counter for an identifier.
// Call on successful login.
func (al *AccountLockout) ResetAttempts(identifier string) {
	al.mu.Lock()
	defer al.mu.Unlock()
	delete(al.lockouts, identifier)
}

// LockoutTimeRemaining returns how much lockout time is left, or zero if the
// account is not locked.
func (al *AccountLockout) LockoutTimeRemaining(identifier string) time.Duration {
	al.mu.Lock()
	defer al.mu.Unlock()

	state, exists := al.lockouts[identifier]
	if !exists || state.lockedUntil.IsZero() {
		return 0
	}

	remaining := state.lockedUntil.Sub(al.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
