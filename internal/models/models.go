// Package models defines the domain entities and data transfer objects for the
// case-management portal. It includes database models mapped to PostgreSQL
// tables and form DTOs for user input.
package models

import "time"

// ============================================================================
// Domain Models (Database Entities)
// ============================================================================

// User represents a portal account with role-based access control.
// Roles are "admin" (full access) and "staff" (case workers).
//
// Database Table: users
// Security Note: PasswordHash should never be exposed in API responses or logs
type User struct {
	ID           int       `db:"id"`            // Primary key, auto-increment
	Email        string    `db:"email"`         // Unique, used for login
	Name         string    `db:"name"`          // Display name
	Role         string    `db:"role"`          // "admin" or "staff"
	PasswordHash string    `db:"password_hash"` // bcrypt hashed password
	CreatedAt    time.Time `db:"created_at"`    // Account creation timestamp
}

// AuditLog represents a persisted audit trail entry.
// All security-relevant actions (logins, failures, data exports, forced
// logouts) are recorded here in addition to being forwarded to the central
// collector.
//
// Database Table: audit_logs
// Immutability: Once created, audit entries are never modified or deleted
type AuditLog struct {
	ID         int64     `db:"id"`          // Primary key
	Action     string    `db:"action"`      // Action type (e.g., "login_success")
	UserID     string    `db:"user_id"`     // Acting user (empty for anonymous)
	Details    []byte    `db:"details"`     // JSONB payload with action context
	SessionID  string    `db:"session_id"`  // Session the action occurred under
	ClientInfo string    `db:"client_info"` // Originating component identifier
	CreatedAt  time.Time `db:"created_at"`  // When the action occurred
}

// ============================================================================
// Data Transfer Objects (DTOs) - Form Input
// ============================================================================

// LoginForm represents user login credentials from the login request.
type LoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// UserView is the safe projection of a User for API responses.
// It omits the password hash.
type UserView struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// View returns the response-safe projection of u.
func (u *User) View() UserView {
	return UserView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
