package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mattertrack/internal/models"
)

// BackupService exports the current document as a standalone artifact and
// restores previously exported artifacts. Restore is a full, unconditional
// overwrite, with no merging of existing data.
type BackupService struct {
	docs    *DocumentService
	metrics *Metrics
}

// NewBackupService creates a backup service.
func NewBackupService(docs *DocumentService, metrics *Metrics) *BackupService {
	return &BackupService{docs: docs, metrics: metrics}
}

// Export wraps the current document as {payload: ...}. Read-only.
func (s *BackupService) Export(ctx context.Context, id models.Identity) (*models.ExportArtifact, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.BackupsExported.Inc()
	}
	return &models.ExportArtifact{Payload: doc}, nil
}

// Import validates the artifact payload and replaces the stored document
// with it. A payload that is not an array of project-shaped values fails
// with ErrInvalidInput and leaves stored state untouched.
func (s *BackupService) Import(ctx context.Context, id models.Identity, artifact *models.BackupArtifact) error {
	if artifact == nil || len(artifact.Payload) == 0 {
		return fmt.Errorf("%w: backup payload is required", ErrInvalidInput)
	}
	doc, err := models.ParseDocument(artifact.Payload)
	if err != nil {
		return fmt.Errorf("%w: backup payload must be an array of projects", ErrInvalidInput)
	}
	if err := s.docs.Replace(ctx, id, doc); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.BackupsRestored.Inc()
	}
	return nil
}

// ExportFilename builds the suggested download name: an RFC3339 timestamp
// with colons and periods swapped for hyphens so it is safe on any
// filesystem.
func ExportFilename(now time.Time) string {
	stamp := now.UTC().Format(time.RFC3339)
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("mattertrack-backup-%s.json", stamp)
}
