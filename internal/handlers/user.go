package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mattertrack/internal/middleware"
	"mattertrack/internal/models"
	"mattertrack/internal/services"
)

// UserHandler serves the current-user endpoint and profile updates.
type UserHandler struct {
	identities services.IdentityService
	cookies    CookieOptions
}

// NewUserHandler creates a new user handler.
func NewUserHandler(identities services.IdentityService, cookies CookieOptions) *UserHandler {
	return &UserHandler{identities: identities, cookies: cookies}
}

// Me reports who the caller is. It never fails: anonymous callers get
// userId null rather than an error, because checking session state is an
// ordinary call.
// GET /api/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	id, ok := middleware.IdentityOf(c)
	if !ok {
		return c.JSON(models.MeResponse{UserID: nil})
	}
	return c.JSON(models.MeResponse{
		UserID:      &id.UserID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
	})
}

// UpdateProfile sets or clears the display name.
// PATCH /api/me
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	id, ok := middleware.IdentityOf(c)
	if !ok {
		return respondError(c, services.ErrAuthRequired)
	}

	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.DisplayName != nil {
		replacement, err := h.identities.UpdateProfile(c.Context(), id, middleware.TokenOf(c), *req.DisplayName)
		if err != nil {
			return respondError(c, err)
		}
		// The single-tenant mode caches the name in the cookie itself.
		if replacement != nil {
			h.cookies.Write(c, replacement.Value, replacement.ExpiresAt)
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}
