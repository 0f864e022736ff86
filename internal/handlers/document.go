package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mattertrack/internal/middleware"
	"mattertrack/internal/services"
)

// DocumentHandler serves the per-user document: one read, one full replace.
type DocumentHandler struct {
	docs *services.DocumentService
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(docs *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// Get returns the caller's current document (an array of projects, possibly
// empty, never null).
// GET /api/projects
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	id, ok := middleware.IdentityOf(c)
	if !ok {
		return respondError(c, services.ErrAuthRequired)
	}

	doc, err := h.docs.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(doc)
}

// Put fully replaces the caller's document with the request body. There is
// no merge and no per-field patch; the client always sends everything.
// PUT /api/projects
func (h *DocumentHandler) Put(c *fiber.Ctx) error {
	id, ok := middleware.IdentityOf(c)
	if !ok {
		return respondError(c, services.ErrAuthRequired)
	}

	if err := h.docs.ReplaceRaw(c.Context(), id, c.Body()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
