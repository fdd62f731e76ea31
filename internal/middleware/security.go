// Package middleware binds the security core to the HTTP layer: secure
// headers, rate limiting, CSRF protection, request logging and login
// throttling.
package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kafkasder-portal/kafkas-sub000/internal/security"
)

// SecurityMiddleware wires the security services into Fiber handlers.
// One instance is created at startup and shared by all routes.
type SecurityMiddleware struct {
	logger    *security.Logger
	config    *security.Config
	sessions  *security.SessionManager
	csrf      *security.CSRFManager
	audit     *security.AuditLogger
	monitor   *security.ActivityMonitor
	lockout   *security.AccountLockout
	loginRate *security.RateLimiter
}

// NewSecurityMiddleware creates the middleware suite over the shared
// security services.
func NewSecurityMiddleware(
	logger *security.Logger,
	config *security.Config,
	sessions *security.SessionManager,
	csrf *security.CSRFManager,
	audit *security.AuditLogger,
	monitor *security.ActivityMonitor,
) *SecurityMiddleware {
	return &SecurityMiddleware{
		logger:    logger,
		config:    config,
		sessions:  sessions,
		csrf:      csrf,
		audit:     audit,
		monitor:   monitor,
		lockout:   security.NewAccountLockout(config.AccountLockoutThreshold, config.AccountLockoutDuration),
		loginRate: security.NewRateLimiter(config.LoginMaxAttempts, config.LoginWindow),
	}
}

// SecureHeaders adds security headers to every response.
func (sm *SecurityMiddleware) SecureHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Content Security Policy (XSS protection)
		c.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'; connect-src 'self'; frame-ancestors 'none'")

		// Prevent MIME type sniffing
		c.Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		c.Set("X-Frame-Options", "DENY")

		// Enforce HTTPS
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		// Referrer policy
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Permissions policy
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		return c.Next()
	}
}

// RequestLogger logs all HTTP requests with security context, and captures
// a security event for every 403 so repeated probing shows up in the log.
func (sm *SecurityMiddleware) RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()

		sm.logger.HTTPRequest(
			c.Method(),
			c.Path(),
			status,
			latency.Milliseconds(),
			c.IP(),
			c.Get("User-Agent"),
		)

		if status == fiber.StatusForbidden {
			sm.logger.SecurityEvent(security.EventUnauthorizedAccess, localUserID(c), c.IP(), c.Get("User-Agent"),
				map[string]interface{}{
					"method": c.Method(),
					"path":   c.Path(),
					"status": status,
				})
		}

		return err
	}
}

// RateLimit gates an endpoint with the given limiter. The identifier is the
// authenticated user when available, falling back to the client IP.
func (sm *SecurityMiddleware) RateLimit(limiter *security.RateLimiter, endpointName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := c.IP()
		if userID := localUserID(c); userID != "" {
			identifier = "user_" + userID
		}

		if !limiter.Allow(identifier) {
			sm.logger.SecurityEvent(security.EventRateLimitExceeded, localUserID(c), c.IP(), c.Get("User-Agent"),
				map[string]interface{}{
					"endpoint":   endpointName,
					"identifier": identifier,
				})

			c.Set("Retry-After", "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded, please try again later",
			})
		}

		return c.Next()
	}
}

// CSRFProtection validates the anti-forgery token on state-changing
// requests. The token arrives in the X-CSRF-Token header or the csrf_token
// form field and must be bound to the authenticated user.
//
// Chain after AuthRequired so the user identity is established.
func (sm *SecurityMiddleware) CSRFProtection() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return c.Next()
		}

		userID := localUserID(c)

		token := c.Get("X-CSRF-Token")
		if token == "" {
			token = c.FormValue("csrf_token")
		}
		if token == "" {
			sm.logCSRFViolation(c, userID, "missing_token")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "CSRF token missing"})
		}

		if !sm.csrf.ValidateToken(token, userID) {
			sm.logCSRFViolation(c, userID, "token_invalid")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "CSRF token invalid"})
		}

		return c.Next()
	}
}

func (sm *SecurityMiddleware) logCSRFViolation(c *fiber.Ctx, userID, reason string) {
	sm.logger.SecurityEvent(security.EventCSRFViolation, userID, c.IP(), c.Get("User-Agent"),
		map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"reason": reason,
		})
}

// CheckLoginAllowed gates a login attempt before credentials are checked:
// the per-IP rate limiter runs first, then the per-account lockout.
// A non-nil error carries the user-facing denial message.
func (sm *SecurityMiddleware) CheckLoginAllowed(email, ipAddress string) error {
	if !sm.loginRate.Allow(ipAddress) {
		sm.logger.SecurityEvent(security.EventRateLimitExceeded, "", ipAddress, "",
			map[string]interface{}{
				"endpoint": "/login",
				"limit":    sm.config.LoginMaxAttempts,
			})
		return fmt.Errorf("too many login attempts, please try again later")
	}

	if sm.lockout.IsLocked(email) {
		remaining := sm.lockout.LockoutTimeRemaining(email)
		sm.logger.SecurityEvent(security.EventAccountLocked, "", ipAddress, "",
			map[string]interface{}{
				"email":      email,
				"locked_for": remaining.String(),
			})
		return fmt.Errorf("account is locked due to too many failed attempts, try again in %d minutes", int(remaining.Minutes())+1)
	}

	return nil
}

// RecordLoginFailure records a failed attempt against the lockout counter,
// audits it and feeds the activity monitor, which may escalate.
func (sm *SecurityMiddleware) RecordLoginFailure(email, ipAddress string) {
	locked := sm.lockout.RecordFailedAttempt(email)

	sm.logger.SecurityEvent(security.EventLoginFailure, "", ipAddress, "",
		map[string]interface{}{
			"email":  email,
			"locked": locked,
		})
	sm.audit.Log("login_failure", email, map[string]interface{}{
		"ip_address": ipAddress,
		"locked":     locked,
	}, "")

	sm.monitor.MonitorActivity(security.ActivityEvent{
		Type:   security.ActivityLoginFailed,
		UserID: email,
		Data:   map[string]interface{}{"ip_address": ipAddress},
	})
}

// RecordLoginSuccess resets throttle state and audits the login.
func (sm *SecurityMiddleware) RecordLoginSuccess(email, ipAddress, userID, sessionID string) {
	sm.lockout.ResetAttempts(email)
	sm.loginRate.Reset(ipAddress)

	sm.logger.SecurityEvent(security.EventLoginSuccess, userID, ipAddress, "",
		map[string]interface{}{"email": email})
	sm.audit.Log("login_success", userID, map[string]interface{}{
		"email":      email,
		"ip_address": ipAddress,
	}, sessionID)
}

// RecordLogout audits a voluntary session teardown.
func (sm *SecurityMiddleware) RecordLogout(userID, sessionID, ipAddress string) {
	sm.logger.SecurityEvent(security.EventLogout, userID, ipAddress, "", nil)
	sm.audit.Log("logout", userID, map[string]interface{}{
		"ip_address": ipAddress,
	}, sessionID)
}

// localUserID reads the authenticated user from the request context.
// Empty for anonymous requests.
func localUserID(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
