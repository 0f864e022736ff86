package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"mattertrack/internal/middleware"
	"mattertrack/internal/models"
	"mattertrack/internal/services"
)

// AuthHandler handles registration, login, logout and password changes.
type AuthHandler struct {
	identities services.IdentityService
	cookies    CookieOptions
	metrics    *services.Metrics
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(identities services.IdentityService, cookies CookieOptions, metrics *services.Metrics) *AuthHandler {
	return &AuthHandler{identities: identities, cookies: cookies, metrics: metrics}
}

// Register creates a new account and logs it in.
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Email = services.NormalizeEmail(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Valid email address is required",
		})
	}

	id, token, err := h.identities.Register(c.Context(), req.Email, req.Password, strings.TrimSpace(req.Name))
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.Write(c, token.Value, token.ExpiresAt)
	return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
		OK:          true,
		Email:       id.Email,
		DisplayName: id.DisplayName,
	})
}

// Login authenticates an existing account.
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	id, token, err := h.identities.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.AuthFailures.WithLabelValues("login").Inc()
		}
		return respondError(c, err)
	}

	h.cookies.Write(c, token.Value, token.ExpiresAt)
	return c.JSON(models.AuthResponse{
		OK:          true,
		Email:       id.Email,
		DisplayName: id.DisplayName,
	})
}

// Logout destroys the current session. Calling it without one is a no-op:
// the outcome (no session) already holds.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(middleware.SessionCookieName); token != "" {
		if err := h.identities.Logout(c.Context(), token); err != nil {
			return respondError(c, err)
		}
	}
	h.cookies.Clear(c)
	return c.JSON(fiber.Map{"ok": true})
}

// ChangePassword verifies the old password and replaces the hash.
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	id, ok := middleware.IdentityOf(c)
	if !ok {
		return respondError(c, services.ErrAuthRequired)
	}

	var req models.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.identities.ChangePassword(c.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		if h.metrics != nil {
			h.metrics.AuthFailures.WithLabelValues("password_change").Inc()
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
