// Package security provides tests for rate limiting.
package security

import (
	"sync"
	"testing"
	"time"
)

// TestRateLimiter_Monotonicity tests that exactly maxRequests calls are
// admitted inside one window.
func TestRateLimiter_Monotonicity(t *testing.T) {
	limiter := NewRateLimiter(5, time.Minute)

	identifier := "192.168.1.100"

	// First 5 requests should be allowed
	for i := 0; i < 5; i++ {
		if !limiter.Allow(identifier) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request should be denied
	if limiter.Allow(identifier) {
		t.Error("6th request should be denied")
	}
}

// TestRateLimiter_WindowRecovery tests that a denied identifier is admitted
// again once the window has slid past its recorded requests.
func TestRateLimiter_WindowRecovery(t *testing.T) {
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	limiter := NewRateLimiter(3, time.Minute)
	limiter.now = func() time.Time { return current }

	identifier := "user_42"

	for i := 0; i < 3; i++ {
		if !limiter.Allow(identifier) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}
	if limiter.Allow(identifier) {
		t.Error("4th request inside window should be denied")
	}

	// Advance past the window; the old timestamps fall out
	current = current.Add(time.Minute + time.Second)

	if !limiter.Allow(identifier) {
		t.Error("Request after window should be allowed")
	}
}

// TestRateLimiter_DenialNotRecorded tests that denied attempts do not
// extend the throttle.
func TestRateLimiter_DenialNotRecorded(t *testing.T) {
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	limiter := NewRateLimiter(2, time.Minute)
	limiter.now = func() time.Time { return current }

	identifier := "10.0.0.1"

	limiter.Allow(identifier)
	limiter.Allow(identifier)

	// Hammer denied requests for half the window
	for i := 0; i < 10; i++ {
		current = current.Add(time.Second)
		if limiter.Allow(identifier) {
			t.Fatal("Request should be denied while window is full")
		}
	}

	// Only the two admitted requests count; once they age out the
	// identifier recovers, regardless of the denied attempts.
	current = current.Add(time.Minute)
	if !limiter.Allow(identifier) {
		t.Error("Denied attempts must not extend the lockout")
	}
}

// TestRateLimiter_ZeroMaxAlwaysDenies tests the maxRequests = 0 edge case.
func TestRateLimiter_ZeroMaxAlwaysDenies(t *testing.T) {
	limiter := NewRateLimiter(0, time.Minute)

	if limiter.Allow("anyone") {
		t.Error("Limiter with maxRequests=0 should always deny")
	}
}

// TestRateLimiter_MultipleIdentifiers tests per-identifier isolation.
func TestRateLimiter_MultipleIdentifiers(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	ip1 := "192.168.1.100"
	ip2 := "192.168.1.101"

	for i := 0; i < 3; i++ {
		if !limiter.Allow(ip1) {
			t.Errorf("IP1 request %d should be allowed", i+1)
		}
	}
	if limiter.Allow(ip1) {
		t.Error("IP1 4th request should be denied")
	}

	// IP2 has its own bucket
	for i := 0; i < 3; i++ {
		if !limiter.Allow(ip2) {
			t.Errorf("IP2 request %d should be allowed", i+1)
		}
	}
	if limiter.Allow(ip2) {
		t.Error("IP2 4th request should be denied")
	}
}

// TestRateLimiter_EmptyBucketSweep tests that identifiers whose requests
// all aged out are dropped from the bucket map.
func TestRateLimiter_EmptyBucketSweep(t *testing.T) {
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	limiter := NewRateLimiter(5, time.Minute)
	limiter.now = func() time.Time { return current }

	limiter.Allow("a")
	limiter.Allow("b")
	limiter.Allow("c")

	if len(limiter.buckets) != 3 {
		t.Fatalf("Expected 3 buckets, got %d", len(limiter.buckets))
	}

	// Everything ages out; the next call's sweep drops the stale buckets
	current = current.Add(2 * time.Minute)
	limiter.Allow("d")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.buckets) != 1 {
		t.Errorf("Expected stale buckets swept, got %d remaining", len(limiter.buckets))
	}
	if _, ok := limiter.buckets["d"]; !ok {
		t.Error("Active bucket should survive the sweep")
	}
}

// TestRateLimiter_Reset tests clearing the throttle for one identifier.
func TestRateLimiter_Reset(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	identifier := "192.168.1.100"

	for i := 0; i < 3; i++ {
		limiter.Allow(identifier)
	}
	if limiter.Allow(identifier) {
		t.Error("Should be rate limited")
	}

	limiter.Reset(identifier)

	if !limiter.Allow(identifier) {
		t.Error("Should be allowed after reset")
	}
}

// TestRateLimiter_Concurrent tests that concurrent callers cannot be
// over-admitted past the configured ceiling.
func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := NewRateLimiter(50, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("shared") {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Errorf("Expected exactly 50 admitted, got %d", admitted)
	}
}

// TestAccountLockout_ThresholdLocks tests lockout after repeated failures.
func TestAccountLockout_ThresholdLocks(t *testing.T) {
	lockout := NewAccountLockout(3, 30*time.Minute)

	email := "user@example.org"

	if lockout.RecordFailedAttempt(email) {
		t.Error("1st failure should not lock")
	}
	if lockout.RecordFailedAttempt(email) {
		t.Error("2nd failure should not lock")
	}
	if !lockout.RecordFailedAttempt(email) {
		t.Error("3rd failure should lock the account")
	}
	if !lockout.IsLocked(email) {
		t.Error("Account should be locked")
	}
	if lockout.LockoutTimeRemaining(email) <= 0 {
		t.Error("Locked account should report remaining time")
	}
}

// TestAccountLockout_ExpiryUnlocks tests that an expired lockout clears.
func TestAccountLockout_ExpiryUnlocks(t *testing.T) {
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	lockout := NewAccountLockout(2, 10*time.Minute)
	lockout.now = func() time.Time { return current }

	email := "user@example.org"
	lockout.RecordFailedAttempt(email)
	lockout.RecordFailedAttempt(email)

	if !lockout.IsLocked(email) {
		t.Fatal("Account should be locked")
	}

	current = current.Add(11 * time.Minute)

	if lockout.IsLocked(email) {
		t.Error("Lockout should expire")
	}
	if lockout.LockoutTimeRemaining(email) != 0 {
		t.Error("Expired lockout should report zero remaining time")
	}
}

// TestAccountLockout_ResetOnSuccess tests counter reset on login success.
func TestAccountLockout_ResetOnSuccess(t *testing.T) {
	lockout := NewAccountLockout(3, 30*time.Minute)

	email := "user@example.org"
	lockout.RecordFailedAttempt(email)
	lockout.RecordFailedAttempt(email)

	lockout.ResetAttempts(email)

	// Counter starts over; two more failures still below threshold
	if lockout.RecordFailedAttempt(email) {
		t.Error("Failure after reset should start a fresh count")
	}
	if lockout.RecordFailedAttempt(email) {
		t.Error("2nd failure after reset should not lock")
	}
}
