// Package security provides audit logging with remote forwarding.
package security

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// AuditEntry is the structured record appended for every security-relevant
// action. Entries are forwarded to a remote collector and optionally stored
// through a local sink; local retention is not required.
type AuditEntry struct {
	Timestamp  time.Time              `json:"timestamp"`
	Action     string                 `json:"action"`
	UserID     string                 `json:"user_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
	ClientInfo string                 `json:"client_info,omitempty"`
}

// AuditSink stores audit entries locally, typically backed by the audit
// repository. Store failures are logged and dropped like forward failures.
type AuditSink interface {
	Store(ctx context.Context, entry AuditEntry) error
}

// AuditLogger appends a structured record for every security-relevant
// action and forwards it to a remote collector.
//
// Forwarding is fire-and-forget: it runs off the request path and its
// failures are logged locally, never surfaced, so audit logging can never
// block or fail the action it describes.
type AuditLogger struct {
	logger *Logger
	client *http.Client

	collectorURL string
	bearerToken  string
	clientInfo   string

	sink AuditSink

	wg  sync.WaitGroup
	now func() time.Time
}

// NewAuditLogger creates an audit logger from security config.
// An empty collector URL disables remote forwarding; a nil sink disables
// local persistence.
func NewAuditLogger(logger *Logger, config *Config, sink AuditSink) *AuditLogger {
	return &AuditLogger{
		logger:       logger,
		client:       &http.Client{Timeout: config.AuditTimeout},
		collectorURL: config.AuditCollectorURL,
		bearerToken:  config.AuditBearerToken,
		clientInfo:   "kafkas-portal/server",
		sink:         sink,
		now:          time.Now,
	}
}

// Log records an audit entry for an action performed by userID, carrying
// the session (empty for anonymous actions) and free-form details. The
// entry is written to the structured log synchronously and forwarded
// asynchronously.
func (a *AuditLogger) Log(action, userID string, details map[string]interface{}, sessionID string) {
	entry := AuditEntry{
		Timestamp:  a.now(),
		Action:     action,
		UserID:     userID,
		Details:    details,
		SessionID:  sessionID,
		ClientInfo: a.clientInfo,
	}

	a.logger.write(LogEntry{
		Level:      LogLevelSecurity,
		Message:    "audit: " + action,
		UserID:     userID,
		SessionID:  sessionID,
		ClientInfo: a.clientInfo,
		Extra:      details,
	})

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.deliver(entry)
	}()
}

// Flush waits for in-flight forwards. Intended for graceful shutdown and
// tests; callers on the request path never wait.
func (a *AuditLogger) Flush() {
	a.wg.Wait()
}

func (a *AuditLogger) deliver(entry AuditEntry) {
	if a.sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.client.Timeout)
		if err := a.sink.Store(ctx, entry); err != nil {
			a.logger.Error("audit sink store failed", err)
		}
		cancel()
	}

	if a.collectorURL == "" {
		return
	}
	if err := a.forward(entry); err != nil {
		a.logger.SecurityEvent(EventAuditForwardFailed, entry.UserID, "", "",
			map[string]interface{}{"action": entry.Action, "error": err.Error()})
	}
}

func (a *AuditLogger) forward(entry AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, a.collectorURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.bearerToken)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}
	return nil
}
