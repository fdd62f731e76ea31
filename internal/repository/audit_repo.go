// Package repository implements the database access layer for the portal.
// This file persists the audit trail alongside remote forwarding.
package repository

import (
	"context"
	"encoding/json"

	"github.com/kafkasder-portal/kafkas-sub000/internal/database"
	"github.com/kafkasder-portal/kafkas-sub000/internal/models"
	"github.com/kafkasder-portal/kafkas-sub000/internal/security"
)

// AuditRepository handles audit trail persistence.
//
// Audit rows are never modified or deleted once created; they are the
// permanent record of security-relevant activity.
type AuditRepository struct{}

// NewAuditRepository creates and returns a new AuditRepository instance.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Log inserts an audit entry and fills in the generated ID and timestamp.
func (r *AuditRepository) Log(ctx context.Context, entry *models.AuditLog) error {
	query := `
        INSERT INTO audit_logs (action, user_id, details, session_id, client_info, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return database.DB.QueryRow(ctx, query,
		entry.Action, entry.UserID, entry.Details, entry.SessionID, entry.ClientInfo, entry.CreatedAt,
	).Scan(&entry.ID)
}

// ListRecent retrieves the most recent audit entries, newest first.
// Used by administrators for security review.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	query := `
        SELECT id, action, user_id, details, session_id, client_info, created_at
        FROM audit_logs
        ORDER BY created_at DESC
        LIMIT $1
    `
	rows, err := database.DB.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.UserID,
			&entry.Details,
			&entry.SessionID,
			&entry.ClientInfo,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Store implements security.AuditSink so the audit logger can persist the
// entries it forwards. Detail maps are stored as JSONB.
func (r *AuditRepository) Store(ctx context.Context, entry security.AuditEntry) error {
	var details []byte
	if entry.Details != nil {
		encoded, err := json.Marshal(entry.Details)
		if err != nil {
			return err
		}
		details = encoded
	}

	row := models.AuditLog{
		Action:     entry.Action,
		UserID:     entry.UserID,
		Details:    details,
		SessionID:  entry.SessionID,
		ClientInfo: entry.ClientInfo,
		CreatedAt:  entry.Timestamp,
	}
	return r.Log(ctx, &row)
}
