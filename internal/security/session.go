// Package security provides server-side session management.
package security

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// sessionIDLength is the exact length of a valid session identifier:
// 32 random bytes, hex-encoded.
const sessionIDLength = 64

// sessionRecord is the stored state for one session. userData is kept
// JSON-encoded so a corrupted payload is detectable at touch time.
type sessionRecord struct {
	userID       string
	userData     []byte
	createdAt    time.Time
	expiry       time.Time
	lastActivity time.Time
}

// SessionManager creates, validates and destroys session records.
//
// Sessions have a fixed lifetime from creation: activity updates refresh
// lastActivity for audit purposes but do not extend the expiry. An idle
// session and a busy one end at the same instant.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*sessionRecord

	ttl time.Duration

	now func() time.Time
}

// NewSessionManager creates a session manager with the given fixed TTL.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*sessionRecord),
		ttl:      ttl,
		now:      time.Now,
	}
}

// CreateSession mints a new session for userID carrying userData and
// returns the opaque session ID. Called after successful authentication.
func (m *SessionManager) CreateSession(userID string, userData map[string]interface{}) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	id := hex.EncodeToString(buf)

	payload, err := json.Marshal(userData)
	if err != nil {
		return "", fmt.Errorf("failed to encode session data: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sessions[id] = &sessionRecord{
		userID:       userID,
		userData:     payload,
		createdAt:    now,
		expiry:       now.Add(m.ttl),
		lastActivity: now,
	}
	return id, nil
}

// ValidateSession reports whether sessionID identifies a live session.
// A malformed ID is rejected before any store access; an expired record is
// deleted lazily on the failed check.
func (m *SessionManager) ValidateSession(sessionID string) bool {
	if !validSessionIDShape(sessionID) {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.sessions[sessionID]
	if !exists {
		return false
	}
	if !m.now().Before(rec.expiry) {
		delete(m.sessions, sessionID)
		return false
	}
	return true
}

// SessionUserID returns the owning user of a live session, or "" if the
// session is missing or expired.
func (m *SessionManager) SessionUserID(sessionID string) string {
	if !validSessionIDShape(sessionID) {
		return ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.sessions[sessionID]
	if !exists || !m.now().Before(rec.expiry) {
		return ""
	}
	return rec.userID
}

// SessionData decodes and returns the payload stored with a live session.
// A record whose payload no longer decodes is deleted rather than returned.
func (m *SessionManager) SessionData(sessionID string) (map[string]interface{}, bool) {
	if !validSessionIDShape(sessionID) {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.sessions[sessionID]
	if !exists || !m.now().Before(rec.expiry) {
		return nil, false
	}

	var data map[string]interface{}
	if err := json.Unmarshal(rec.userData, &data); err != nil {
		// Corrupt record: treat as not found and make sure it cannot
		// poison future lookups.
		delete(m.sessions, sessionID)
		return nil, false
	}
	return data, true
}

// UpdateSessionActivity touches lastActivity for audit purposes.
// Best effort: a missing session is a no-op, and a session whose stored
// payload fails to decode is deleted instead of surfacing an error.
func (m *SessionManager) UpdateSessionActivity(sessionID string) {
	if !validSessionIDShape(sessionID) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.sessions[sessionID]
	if !exists {
		return
	}

	var data map[string]interface{}
	if err := json.Unmarshal(rec.userData, &data); err != nil {
		delete(m.sessions, sessionID)
		return
	}
	rec.lastActivity = m.now()
}

// DestroySession deletes the session unconditionally. Idempotent.
func (m *SessionManager) DestroySession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// DestroyUserSessions deletes every session owned by userID.
// Used during a forced logout triggered by the activity monitor.
func (m *SessionManager) DestroyUserSessions(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.sessions {
		if rec.userID == userID {
			delete(m.sessions, id)
		}
	}
}

// validSessionIDShape checks the 64-hex-character format without touching
// the store, so garbage IDs cost nothing.
func validSessionIDShape(id string) bool {
	if len(id) != sessionIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
