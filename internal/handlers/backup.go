package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"mattertrack/internal/middleware"
	"mattertrack/internal/models"
	"mattertrack/internal/services"
)

// BackupHandler serves manual export and restore of the whole document.
type BackupHandler struct {
	backups *services.BackupService
}

// NewBackupHandler creates a new backup handler.
func NewBackupHandler(backups *services.BackupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// Export returns {payload: document} as pretty-printed JSON with a
// timestamped download filename. Read-only.
// GET /api/backup
func (h *BackupHandler) Export(c *fiber.Ctx) error {
	id, ok := middleware.IdentityOf(c)
	if !ok {
		return respondError(c, services.ErrAuthRequired)
	}

	artifact, err := h.backups.Export(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	body, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", services.ExportFilename(time.Now())))
	return c.Send(body)
}

// Restore validates an uploaded artifact and fully replaces the stored
// document with its payload. No merge with existing data.
// POST /api/restore
func (h *BackupHandler) Restore(c *fiber.Ctx) error {
	id, ok := middleware.IdentityOf(c)
	if !ok {
		return respondError(c, services.ErrAuthRequired)
	}

	var artifact models.BackupArtifact
	if err := json.Unmarshal(c.Body(), &artifact); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.backups.Import(c.Context(), id, &artifact); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
