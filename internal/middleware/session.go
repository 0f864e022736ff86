package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"mattertrack/internal/models"
	"mattertrack/internal/services"
)

// SessionCookieName is the HTTP-only cookie carrying the session credential.
const SessionCookieName = "mt_session"

// Locals keys set on authenticated requests.
const (
	LocalsIdentity = "identity"
	LocalsToken    = "session_token"
)

// IdentityOf returns the resolved identity of the current request, if any.
func IdentityOf(c *fiber.Ctx) (models.Identity, bool) {
	id, ok := c.Locals(LocalsIdentity).(models.Identity)
	return id, ok
}

// TokenOf returns the raw session token of the current request, if any.
func TokenOf(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalsToken).(string)
	return token
}

// SessionAuth resolves the session cookie to an identity and rejects
// everything else with 401. All document, backup and profile routes sit
// behind it.
func SessionAuth(identities services.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookieName)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		id, err := identities.Resolve(c.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrAuthRequired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Authentication required",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		c.Locals(LocalsIdentity, id)
		c.Locals(LocalsToken, token)
		return c.Next()
	}
}

// OptionalSessionAuth resolves the cookie when present but lets anonymous
// requests through; GET /api/me uses it, since checking session state is a
// normal call, not an error.
func OptionalSessionAuth(identities services.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookieName)
		if token == "" {
			return c.Next()
		}
		if id, err := identities.Resolve(c.Context(), token); err == nil {
			c.Locals(LocalsIdentity, id)
			c.Locals(LocalsToken, token)
		}
		return c.Next()
	}
}
