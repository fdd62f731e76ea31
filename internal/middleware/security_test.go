// Package middleware provides tests for the HTTP security middleware.
package middleware

import (
	"bytes"
	"log"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kafkasder-portal/kafkas-sub000/internal/security"
)

// newTestSuite builds a middleware suite over in-memory services and a
// silenced logger.
func newTestSuite(t *testing.T) (*SecurityMiddleware, *security.SessionManager, *security.CSRFManager) {
	t.Helper()

	logger := security.NewLogger()
	logger.SetOutput(log.New(&bytes.Buffer{}, "", 0))

	config := security.DefaultConfig()
	sessions := security.NewSessionManager(config.SessionTTL)
	csrf := security.NewCSRFManager(config.CSRFTokenTTL)
	audit := security.NewAuditLogger(logger, config, nil)
	monitor := security.NewActivityMonitor(logger, config, audit,
		&security.Teardown{Sessions: sessions, Tokens: csrf})

	sm := NewSecurityMiddleware(logger, config, sessions, csrf, audit, monitor)
	return sm, sessions, csrf
}

// TestSecureHeaders tests that every security header is applied.
func TestSecureHeaders(t *testing.T) {
	sm, _, _ := newTestSuite(t)

	app := fiber.New()
	app.Use(sm.SecureHeaders())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for name, want := range headers {
		if got := resp.Header.Get(name); got != want {
			t.Errorf("Header %s: expected %q, got %q", name, want, got)
		}
	}
	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy should be set")
	}
}

// TestRateLimitMiddleware tests 429 once the limiter is exhausted.
func TestRateLimitMiddleware(t *testing.T) {
	sm, _, _ := newTestSuite(t)

	limiter := security.NewRateLimiter(2, time.Minute)

	app := fiber.New()
	app.Use(sm.RateLimit(limiter, "test"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on denial")
	}
}

// TestCSRFProtection_SkipsSafeMethods tests that GET passes untouched.
func TestCSRFProtection_SkipsSafeMethods(t *testing.T) {
	sm, _, _ := newTestSuite(t)

	app := fiber.New()
	app.Use(sm.CSRFProtection())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("GET should skip CSRF, got %d", resp.StatusCode)
	}
}

// TestCSRFProtection_MissingToken tests 403 on a POST without a token.
func TestCSRFProtection_MissingToken(t *testing.T) {
	sm, _, _ := newTestSuite(t)

	app := fiber.New()
	app.Use(sm.CSRFProtection())
	app.Post("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("Expected 403, got %d", resp.StatusCode)
	}
}

// TestCSRFProtection_ValidToken tests the full chain: session auth
// establishes the user, then the bound token validates.
func TestCSRFProtection_ValidToken(t *testing.T) {
	sm, sessions, csrf := newTestSuite(t)

	sid, err := sessions.CreateSession("user-1", map[string]interface{}{"role": "staff"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	token, err := csrf.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	app := fiber.New()
	app.Use(AuthRequired(sessions, "session_id"))
	app.Use(sm.CSRFProtection())
	app.Post("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-Session-ID", sid)
	req.Header.Set("X-CSRF-Token", token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200 with valid token, got %d", resp.StatusCode)
	}
}

// TestCSRFProtection_WrongUser tests that a token issued for another user
// is rejected.
func TestCSRFProtection_WrongUser(t *testing.T) {
	sm, sessions, csrf := newTestSuite(t)

	sid, _ := sessions.CreateSession("user-1", nil)
	otherToken, _ := csrf.GenerateToken("user-2")

	app := fiber.New()
	app.Use(AuthRequired(sessions, "session_id"))
	app.Use(sm.CSRFProtection())
	app.Post("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-Session-ID", sid)
	req.Header.Set("X-CSRF-Token", otherToken)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("Expected 403 for another user's token, got %d", resp.StatusCode)
	}
}

// TestCheckLoginAllowed_RateLimit tests per-IP login throttling.
func TestCheckLoginAllowed_RateLimit(t *testing.T) {
	sm, _, _ := newTestSuite(t)

	ip := "203.0.113.9"
	for i := 0; i < 5; i++ {
		if err := sm.CheckLoginAllowed("user@example.org", ip); err != nil {
			t.Fatalf("Attempt %d should be allowed: %v", i+1, err)
		}
	}

	if err := sm.CheckLoginAllowed("user@example.org", ip); err == nil {
		t.Error("6th attempt should be throttled")
	}
}

// TestRecordLoginFailure_EscalatesToTeardown tests that repeated failures
// travel through the monitor and destroy the victim's sessions.
func TestRecordLoginFailure_EscalatesToTeardown(t *testing.T) {
	sm, sessions, _ := newTestSuite(t)

	sid, _ := sessions.CreateSession("victim@example.org", nil)

	for i := 0; i < 3; i++ {
		sm.RecordLoginFailure("victim@example.org", "198.51.100.7")
	}

	if sessions.ValidateSession(sid) {
		t.Error("Three failed logins should force a session teardown")
	}
}
