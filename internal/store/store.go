// Package store provides the document persistence contract and its two
// interchangeable backends: a sqlite row per user and a single JSON file with
// rotating snapshots (single-tenant dev mode).
package store

import (
	"context"

	"mattertrack/internal/models"
)

// DocumentStore reads and fully replaces the current document for a user.
// Callers never learn which backend is active; that is a deployment choice.
type DocumentStore interface {
	// Read returns the stored document, or an empty one if the user has
	// never saved (first use after registration).
	Read(ctx context.Context, userID string) (models.Document, error)

	// Replace atomically overwrites the stored document. A concurrent
	// reader sees either the old or the new document, never a partial one.
	Replace(ctx context.Context, userID string, doc models.Document) error
}
