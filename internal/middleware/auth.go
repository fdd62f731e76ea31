// Package middleware provides authentication and authorization middleware.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kafkasder-portal/kafkas-sub000/internal/security"
)

// AuthRequired ensures the request carries a valid session cookie.
//
// On success the user identity is placed in the context for downstream
// handlers and the session's activity timestamp is touched. Touching does
// not extend the session lifetime.
//
// Context Locals Set:
//   - user_id: the authenticated user's ID (string)
//   - user_role: the user's role, when present in the session payload
//   - session_id: the validated session identifier
func AuthRequired(sessions *security.SessionManager, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(cookieName)
		if sessionID == "" {
			sessionID = c.Get("X-Session-ID")
		}

		if !sessions.ValidateSession(sessionID) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}

		c.Locals("user_id", sessions.SessionUserID(sessionID))
		c.Locals("session_id", sessionID)
		if data, ok := sessions.SessionData(sessionID); ok {
			if role, ok := data["role"].(string); ok {
				c.Locals("user_role", role)
			}
		}

		sessions.UpdateSessionActivity(sessionID)

		return c.Next()
	}
}

// AdminOnly rejects requests whose session does not carry the admin role.
// Chain after AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("user_role") != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin access required",
			})
		}
		return c.Next()
	}
}
