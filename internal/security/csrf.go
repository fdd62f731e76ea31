// Package security provides anti-forgery token management.
package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// csrfRecord is the stored state for one issued token.
type csrfRecord struct {
	userID    string
	createdAt time.Time
	expiry    time.Time
}

// CSRFManager issues and validates anti-forgery tokens bound to a user.
//
// Binding the token to a user prevents a token observed for one principal
// from being replayed for another, and the expiry bounds the exposure window
// of a captured token. Token values are 32 random bytes, so the map-lookup
// equality check is not attacker-influenced.
type CSRFManager struct {
	mu     sync.Mutex
	tokens map[string]csrfRecord

	ttl time.Duration

	now func() time.Time
}

// NewCSRFManager creates a token manager with the given token lifetime.
func NewCSRFManager(ttl time.Duration) *CSRFManager {
	return &CSRFManager{
		tokens: make(map[string]csrfRecord),
		ttl:    ttl,
		now:    time.Now,
	}
}

// GenerateToken mints a new token bound to userID and returns it.
// Expired records are swept opportunistically on each generation so the
// store stays bounded without a background goroutine.
func (m *CSRFManager) GenerateToken(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	token := hex.EncodeToString(buf)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for t, rec := range m.tokens {
		if !now.Before(rec.expiry) {
			delete(m.tokens, t)
		}
	}

	m.tokens[token] = csrfRecord{
		userID:    userID,
		createdAt: now,
		expiry:    now.Add(m.ttl),
	}
	return token, nil
}

// ValidateToken reports whether token is live and bound to userID.
// An expired record is deleted as a side effect of the failed check.
func (m *CSRFManager) ValidateToken(token, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.tokens[token]
	if !exists {
		return false
	}
	if rec.userID != userID {
		return false
	}
	if !m.now().Before(rec.expiry) {
		delete(m.tokens, token)
		return false
	}
	return true
}

// RevokeToken deletes the token unconditionally. Idempotent.
func (m *CSRFManager) RevokeToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
}

// RevokeUserTokens deletes every live token bound to userID.
// Used during a forced logout so no stale token survives the teardown.
func (m *CSRFManager) RevokeUserTokens(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t, rec := range m.tokens {
		if rec.userID == userID {
			delete(m.tokens, t)
		}
	}
}
