package services

import (
	"context"
	"fmt"

	"mattertrack/internal/logging"
	"mattertrack/internal/models"
	"mattertrack/internal/store"
)

// DocumentService fronts the document store: shape validation before every
// write, metrics around both directions. Callers always work with whole
// documents; there is no partial write primitive.
type DocumentService struct {
	store   store.DocumentStore
	metrics *Metrics
}

// NewDocumentService creates a document service.
func NewDocumentService(st store.DocumentStore, metrics *Metrics) *DocumentService {
	return &DocumentService{store: st, metrics: metrics}
}

// Get returns the caller's current document (empty if never saved).
func (s *DocumentService) Get(ctx context.Context, id models.Identity) (models.Document, error) {
	doc, err := s.store.Read(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ReplaceRaw validates that raw is an array of project-shaped values and
// fully replaces the stored document with it.
func (s *DocumentService) ReplaceRaw(ctx context.Context, id models.Identity, raw []byte) error {
	doc, err := models.ParseDocument(raw)
	if err != nil {
		return fmt.Errorf("%w: body must be an array of projects", ErrInvalidInput)
	}
	return s.Replace(ctx, id, doc)
}

// Replace fully replaces the stored document.
func (s *DocumentService) Replace(ctx context.Context, id models.Identity, doc models.Document) error {
	if err := s.store.Replace(ctx, id.UserID, doc); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.DocumentsSaved.Inc()
	}
	logging.WithUser(id.UserID).Debug("document replaced", "projects", len(doc))
	return nil
}
