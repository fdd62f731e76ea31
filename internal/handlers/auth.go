// Package handlers implements the HTTP boundary of the portal.
// This file handles login and logout.
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/kafkasder-portal/kafkas-sub000/internal/middleware"
	"github.com/kafkasder-portal/kafkas-sub000/internal/security"
	"github.com/kafkasder-portal/kafkas-sub000/internal/services"
)

// AuthHandler handles authentication requests: credential checks, session
// issue and teardown, and the anti-forgery token handed to the client.
type AuthHandler struct {
	authService *services.AuthService
	sessions    *security.SessionManager
	csrf        *security.CSRFManager
	sanitizer   *security.Sanitizer
	validator   *security.ValidationService
	secure      *middleware.SecurityMiddleware
	config      *security.Config
}

// NewAuthHandler creates an AuthHandler over the shared security services.
func NewAuthHandler(
	authService *services.AuthService,
	sessions *security.SessionManager,
	csrf *security.CSRFManager,
	validator *security.ValidationService,
	secure *middleware.SecurityMiddleware,
	config *security.Config,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		csrf:        csrf,
		sanitizer:   security.NewSanitizer(),
		validator:   validator,
		secure:      secure,
		config:      config,
	}
}

var loginRules = map[string]security.FieldRule{
	"email":    {Required: true, Email: true, MaxLength: 254},
	"password": {Required: true, MinLength: 8, MaxLength: 128},
}

// Login authenticates credentials and issues a session plus a CSRF token.
//
// The request passes through the full pipeline: per-IP throttling and
// account lockout, input sanitization, declarative validation, bcrypt
// verification, then session and token issue. Failures are recorded so the
// activity monitor can escalate repeated attempts.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	email, _ := h.sanitizer.SanitizeInput(form.Email).(string)

	if err := h.secure.CheckLoginAllowed(email, c.IP()); err != nil {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if errs := h.validator.ValidateForm(map[string]interface{}{
		"email":    email,
		"password": form.Password,
	}, loginRules); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": errs,
		})
	}

	user, err := h.authService.Authenticate(c.Context(), email, form.Password)
	if err != nil {
		h.secure.RecordLoginFailure(email, c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid email or password",
		})
	}

	userID := strconv.Itoa(user.ID)
	sessionID, err := h.sessions.CreateSession(userID, map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create session",
		})
	}

	csrfToken, err := h.csrf.GenerateToken(userID)
	if err != nil {
		h.sessions.DestroySession(sessionID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to issue token",
		})
	}

	h.secure.RecordLoginSuccess(email, c.IP(), userID, sessionID)

	c.Cookie(&fiber.Cookie{
		Name:     h.config.SessionCookieName,
		Value:    sessionID,
		HTTPOnly: h.config.SessionHTTPOnly,
		Secure:   h.config.SessionSecure,
		SameSite: h.config.SessionSameSite,
		MaxAge:   int(h.config.SessionTTL.Seconds()),
	})

	return c.JSON(fiber.Map{
		"user":       user.View(),
		"csrf_token": csrfToken,
	})
}

// Logout destroys the caller's session and revokes their CSRF tokens.
// Requires an authenticated session (AuthRequired runs before this).
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	sessionID, _ := c.Locals("session_id").(string)

	h.sessions.DestroySession(sessionID)
	h.csrf.RevokeUserTokens(userID)
	h.secure.RecordLogout(userID, sessionID, c.IP())

	c.Cookie(&fiber.Cookie{
		Name:     h.config.SessionCookieName,
		Value:    "",
		HTTPOnly: h.config.SessionHTTPOnly,
		Secure:   h.config.SessionSecure,
		SameSite: h.config.SessionSameSite,
		MaxAge:   -1,
	})

	return c.JSON(fiber.Map{"status": "logged out"})
}
