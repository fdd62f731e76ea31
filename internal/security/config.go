// Package security provides the request-security core for the portal:
// rate limiting, anti-forgery tokens, session management, upload and input
// validation, structured audit logging and suspicious-activity monitoring.
package security

import (
	"time"
)

// Config holds all security-related configuration values.
// Defaults follow OWASP ASVS recommendations; deployments override them
// through the application config layer.
type Config struct {
	// Password storage
	BcryptCost int // Cost factor for bcrypt hashing (recommended: 12)

	// Session management
	SessionTTL        time.Duration // Fixed session lifetime from creation
	SessionCookieName string        // Name of session cookie
	SessionSecure     bool          // Require HTTPS for session cookies
	SessionHTTPOnly   bool          // Prevent JavaScript access to session cookies
	SessionSameSite   string        // CSRF protection via SameSite attribute

	// Anti-forgery tokens
	CSRFTokenTTL time.Duration // Lifetime of issued CSRF tokens

	// Brute force protection
	LoginMaxAttempts        int           // Max login attempts per window per IP
	LoginWindow             time.Duration // Window for login attempt counting
	AccountLockoutThreshold int           // Failed attempts before account lockout
	AccountLockoutDuration  time.Duration // How long account stays locked

	// General rate limiting
	APIMaxRequests    int           // Generic API requests per window per identifier
	APIWindow         time.Duration // Window for generic API limiting
	UploadMaxRequests int           // Upload attempts per window per identifier
	UploadWindow      time.Duration // Window for upload limiting
	FormMaxRequests   int           // Form submissions per window per identifier
	FormWindow        time.Duration // Window for form submission limiting

	// Upload validation: per-category size ceilings and MIME allow-lists
	UploadCategories map[string]UploadCategory

	// Input validation
	MaxFieldLength int     // Default upper bound for free-text fields
	MaxAmount      float64 // Sanity ceiling for monetary amounts (TRY)

	// Suspicious activity monitoring
	FailedLoginThreshold int           // login_failed events before high severity
	FailedLoginWindow    time.Duration // Window for failed login counting
	FormFloodThreshold   int           // form_submission events before medium severity
	FormFloodWindow      time.Duration // Window for form submission counting
	LargeAccessThreshold int           // data_access record count before medium severity
	ActivityHistoryCap   int           // Upper bound on retained activity records

	// Audit forwarding
	AuditCollectorURL string        // Remote collector endpoint (empty disables forwarding)
	AuditBearerToken  string        // Bearer token for the collector
	AuditTimeout      time.Duration // Per-forward HTTP timeout
}

// UploadCategory describes the upload policy for one file category.
type UploadCategory struct {
	MaxSize      int64    // Maximum file size in bytes
	AllowedMIMEs []string // Acceptable Content-Type values
}

// DefaultConfig returns security configuration with recommended defaults.
func DefaultConfig() *Config {
	return &Config{
		BcryptCost: 12,

		SessionTTL:        24 * time.Hour,
		SessionCookieName: "session_id",
		SessionSecure:     true,
		SessionHTTPOnly:   true,
		SessionSameSite:   "Strict",

		CSRFTokenTTL: time.Hour,

		LoginMaxAttempts:        5,
		LoginWindow:             time.Minute,
		AccountLockoutThreshold: 10,
		AccountLockoutDuration:  30 * time.Minute,

		APIMaxRequests:    100,
		APIWindow:         time.Minute,
		UploadMaxRequests: 10,
		UploadWindow:      time.Minute,
		FormMaxRequests:   20,
		FormWindow:        time.Minute,

		UploadCategories: map[string]UploadCategory{
			"image": {
				MaxSize:      5 * 1024 * 1024,
				AllowedMIMEs: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
			},
			"document": {
				MaxSize: 10 * 1024 * 1024,
				AllowedMIMEs: []string{
					"application/pdf",
					"application/msword",
					"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
				},
			},
			"spreadsheet": {
				MaxSize: 10 * 1024 * 1024,
				AllowedMIMEs: []string{
					"application/vnd.ms-excel",
					"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				},
			},
		},

		MaxFieldLength: 1000,
		MaxAmount:      1_000_000,

		FailedLoginThreshold: 3,
		FailedLoginWindow:    5 * time.Minute,
		FormFloodThreshold:   10,
		FormFloodWindow:      time.Minute,
		LargeAccessThreshold: 1000,
		ActivityHistoryCap:   10_000,

		AuditCollectorURL: "",
		AuditBearerToken:  "",
		AuditTimeout:      5 * time.Second,
	}
}
