// Package security provides suspicious-activity monitoring and escalation.
package security

import (
	"fmt"
	"sync"
	"time"
)

// ActivityType tags a monitored activity event.
type ActivityType string

const (
	ActivityLoginFailed    ActivityType = "login_failed"
	ActivityDataAccess     ActivityType = "data_access"
	ActivityFormSubmission ActivityType = "form_submission"
)

// Severity classifies a detected suspicious event. High severity triggers
// automatic session termination; medium and low are recorded only.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ActivityEvent describes one tagged action fed into the monitor.
type ActivityEvent struct {
	Type      ActivityType
	UserID    string
	Timestamp time.Time // Zero means "now"
	Data      map[string]interface{}
}

// SuspiciousActivityRecord is appended whenever a rule matches.
type SuspiciousActivityRecord struct {
	Type      ActivityType
	UserID    string
	Timestamp time.Time
	Severity  Severity
	Details   string
}

// SessionTerminator performs the hard teardown of a user's authenticated
// state. The monitor is the one component allowed to unilaterally alter
// another component's state, and it does so only through this interface.
type SessionTerminator interface {
	TerminateUser(userID, reason string)
}

// Teardown is the standard SessionTerminator: it destroys every session and
// revokes every CSRF token held by the user.
type Teardown struct {
	Sessions *SessionManager
	Tokens   *CSRFManager
}

// TerminateUser clears all authenticated state for userID.
func (t *Teardown) TerminateUser(userID, reason string) {
	t.Sessions.DestroyUserSessions(userID)
	t.Tokens.RevokeUserTokens(userID)
}

// activityRule is one row of the monitor's rule table: an event type, a
// predicate over the windowed history, the resulting severity and a
// human-readable description. Adding a detection means adding a row, not
// touching the dispatch loop.
type activityRule struct {
	eventType ActivityType
	severity  Severity
	match     func(event ActivityEvent, history []ActivityEvent) bool
	describe  func(event ActivityEvent) string
}

// ActivityMonitor consumes tagged activity events, applies threshold rules
// over its in-process history and escalates on high-severity findings.
type ActivityMonitor struct {
	mu      sync.Mutex
	history []ActivityEvent
	records []SuspiciousActivityRecord

	rules      []activityRule
	historyCap int

	logger     *Logger
	audit      *AuditLogger
	terminator SessionTerminator

	now func() time.Time
}

// NewActivityMonitor creates a monitor with the built-in rule set:
//
//   - login_failed: threshold repeats per user inside the failed-login
//     window classify high and force a logout.
//   - data_access: a single event touching more records than the large
//     access threshold classifies medium.
//   - form_submission: threshold repeats per user inside the flood window
//     classify medium.
//
// Windows are measured against the incoming event's timestamp, not the
// wall clock, so replayed event streams classify deterministically.
func NewActivityMonitor(logger *Logger, config *Config, audit *AuditLogger, terminator SessionTerminator) *ActivityMonitor {
	m := &ActivityMonitor{
		historyCap: config.ActivityHistoryCap,
		logger:     logger,
		audit:      audit,
		terminator: terminator,
		now:        time.Now,
	}

	m.rules = []activityRule{
		{
			eventType: ActivityLoginFailed,
			severity:  SeverityHigh,
			match: countAtLeast(ActivityLoginFailed,
				config.FailedLoginThreshold, config.FailedLoginWindow),
			describe: func(e ActivityEvent) string {
				return fmt.Sprintf("%d failed logins within %s",
					config.FailedLoginThreshold, config.FailedLoginWindow)
			},
		},
		{
			eventType: ActivityDataAccess,
			severity:  SeverityMedium,
			match: func(e ActivityEvent, _ []ActivityEvent) bool {
				count, ok := recordCount(e.Data)
				return ok && count > config.LargeAccessThreshold
			},
			describe: func(e ActivityEvent) string {
				count, _ := recordCount(e.Data)
				return fmt.Sprintf("bulk data access of %d records", count)
			},
		},
		{
			eventType: ActivityFormSubmission,
			severity:  SeverityMedium,
			match: countAtLeast(ActivityFormSubmission,
				config.FormFloodThreshold, config.FormFloodWindow),
			describe: func(e ActivityEvent) string {
				return fmt.Sprintf("%d form submissions within %s",
					config.FormFloodThreshold, config.FormFloodWindow)
			},
		},
	}

	return m
}

// countAtLeast builds a predicate that fires when the user has produced at
// least threshold events of the given type (incoming event included) inside
// the window ending at the incoming event's timestamp.
func countAtLeast(eventType ActivityType, threshold int, window time.Duration) func(ActivityEvent, []ActivityEvent) bool {
	return func(event ActivityEvent, history []ActivityEvent) bool {
		cutoff := event.Timestamp.Add(-window)
		count := 0
		for _, past := range history {
			if past.Type != eventType || past.UserID != event.UserID {
				continue
			}
			if past.Timestamp.Before(cutoff) || past.Timestamp.After(event.Timestamp) {
				continue
			}
			count++
		}
		return count >= threshold
	}
}

func recordCount(data map[string]interface{}) (int, bool) {
	switch v := data["recordCount"].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// MonitorActivity records an event and applies the rule table.
// On a match it appends a suspicious-activity record, emits an audit entry,
// and for high severity triggers the hard session teardown. Unmatched
// events leave no suspicious record.
func (m *ActivityMonitor) MonitorActivity(event ActivityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = m.now()
	}

	m.mu.Lock()
	m.history = append(m.history, event)
	if m.historyCap > 0 && len(m.history) > m.historyCap {
		m.history = m.history[len(m.history)-m.historyCap:]
	}

	var matched *activityRule
	for i := range m.rules {
		rule := &m.rules[i]
		if rule.eventType != event.Type {
			continue
		}
		if rule.match(event, m.history) {
			matched = rule
			break
		}
	}

	var record SuspiciousActivityRecord
	if matched != nil {
		record = SuspiciousActivityRecord{
			Type:      event.Type,
			UserID:    event.UserID,
			Timestamp: event.Timestamp,
			Severity:  matched.severity,
			Details:   matched.describe(event),
		}
		m.records = append(m.records, record)
	}
	m.mu.Unlock()

	if matched == nil {
		return
	}

	m.logger.SecurityEvent(EventSuspiciousActivity, event.UserID, "", "",
		map[string]interface{}{
			"activity_type": string(event.Type),
			"severity":      string(matched.severity),
			"details":       record.Details,
		})
	if m.audit != nil {
		m.audit.Log("suspicious_activity", event.UserID, map[string]interface{}{
			"activity_type": string(event.Type),
			"severity":      string(matched.severity),
			"details":       record.Details,
		}, "")
	}

	if matched.severity == SeverityHigh && m.terminator != nil {
		m.logger.SecurityEvent(EventForcedLogout, event.UserID, "", "",
			map[string]interface{}{"reason": record.Details})
		m.terminator.TerminateUser(event.UserID, record.Details)
	}
}

// Records returns a copy of the suspicious-activity records collected so
// far, oldest first.
func (m *ActivityMonitor) Records() []SuspiciousActivityRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SuspiciousActivityRecord, len(m.records))
	copy(out, m.records)
	return out
}
