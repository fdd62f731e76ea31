// Package security provides structured JSON logging for security events.
package security

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

// LogLevel classifies log entries.
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARN"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
	LogLevelSecurity LogLevel = "SECURITY"
)

// SecurityEventType identifies the kind of security event being logged.
type SecurityEventType string

const (
	EventLoginSuccess       SecurityEventType = "login_success"
	EventLoginFailure       SecurityEventType = "login_failure"
	EventLogout             SecurityEventType = "logout"
	EventAccountLocked      SecurityEventType = "account_locked"
	EventSessionCreated     SecurityEventType = "session_created"
	EventSessionExpired     SecurityEventType = "session_expired"
	EventSessionDestroyed   SecurityEventType = "session_destroyed"
	EventForcedLogout       SecurityEventType = "forced_logout"
	EventCSRFViolation      SecurityEventType = "csrf_violation"
	EventRateLimitExceeded  SecurityEventType = "rate_limit_exceeded"
	EventUploadRejected     SecurityEventType = "upload_rejected"
	EventValidationFailure  SecurityEventType = "validation_failure"
	EventUnauthorizedAccess SecurityEventType = "unauthorized_access"
	EventSuspiciousActivity SecurityEventType = "suspicious_activity"
	EventDataExport         SecurityEventType = "data_export"
	EventAuditForwardFailed SecurityEventType = "audit_forward_failed"
)

// LogEntry is the JSON shape of every log line.
type LogEntry struct {
	Timestamp  time.Time              `json:"timestamp"`
	Level      LogLevel               `json:"level"`
	Message    string                 `json:"message"`
	EventType  SecurityEventType      `json:"event_type,omitempty"`
	UserID     string                 `json:"user_id,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	Method     string                 `json:"method,omitempty"`
	Path       string                 `json:"path,omitempty"`
	Status     int                    `json:"status,omitempty"`
	LatencyMS  int64                  `json:"latency_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
	ClientInfo string                 `json:"client_info,omitempty"`
}

// Logger writes structured JSON log entries to a single destination.
// The output can be swapped in tests to capture entries.
type Logger struct {
	output *log.Logger

	now func() time.Time
}

// NewLogger creates a logger writing JSON lines to stdout.
func NewLogger() *Logger {
	return &Logger{
		output: log.New(os.Stdout, "", 0),
		now:    time.Now,
	}
}

// SetOutput redirects log output. Intended for tests.
func (l *Logger) SetOutput(out *log.Logger) {
	l.output = out
}

func (l *Logger) write(entry LogEntry) {
	entry.Timestamp = l.now()
	data, err := json.Marshal(entry)
	if err != nil {
		// A value that cannot marshal still deserves a trace.
		l.output.Printf(`{"level":"ERROR","message":"log marshal failed: %v"}`, err)
		return
	}
	l.output.Print(string(data))
}

// Info logs an informational message.
func (l *Logger) Info(message string) {
	l.write(LogEntry{Level: LogLevelInfo, Message: message})
}

// Warn logs a warning message.
func (l *Logger) Warn(message string) {
	l.write(LogEntry{Level: LogLevelWarning, Message: message})
}

// Error logs an error message with an optional cause.
func (l *Logger) Error(message string, err error) {
	entry := LogEntry{Level: LogLevelError, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

// Critical logs a critical failure with an optional cause.
func (l *Logger) Critical(message string, err error) {
	entry := LogEntry{Level: LogLevelCritical, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

// SecurityEvent logs a security-relevant action with actor context.
//
// Parameters:
//   - eventType: Classified event type (EventLoginFailure, ...)
//   - userID: Acting user, empty for anonymous actions
//   - ipAddress, userAgent: Client context
//   - extra: Free-form structured details
func (l *Logger) SecurityEvent(eventType SecurityEventType, userID, ipAddress, userAgent string, extra map[string]interface{}) {
	l.write(LogEntry{
		Level:     LogLevelSecurity,
		Message:   string(eventType),
		EventType: eventType,
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Extra:     extra,
	})
}

// HTTPRequest logs a completed HTTP request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMS int64, ipAddress, userAgent string) {
	l.write(LogEntry{
		Level:     LogLevelInfo,
		Message:   fmt.Sprintf("%s %s %d", method, path, status),
		Method:    method,
		Path:      path,
		Status:    status,
		LatencyMS: latencyMS,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
}
