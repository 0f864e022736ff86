package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"mattertrack/internal/database"
	"mattertrack/internal/models"
)

// SQLStore keeps one row per user in the documents table, the document
// serialized into a JSON text column.
type SQLStore struct {
	db *database.DB
}

// NewSQLStore creates a sqlite-backed document store.
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Read returns the user's document, or an empty document if no row exists.
func (s *SQLStore) Read(ctx context.Context, userID string) (models.Document, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM documents WHERE user_id = ?", userID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return models.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode stored document: %w", err)
	}
	return doc.Normalize(), nil
}

// Replace upserts the serialized document in a single statement, which sqlite
// executes atomically.
func (s *SQLStore) Replace(ctx context.Context, userID string, doc models.Document) error {
	if doc == nil {
		doc = models.Document{}
	}
	payload, err := json.Marshal(doc.Normalize())
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (user_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, userID, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}
