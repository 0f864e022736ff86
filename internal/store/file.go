package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mattertrack/internal/models"
)

const snapshotPrefix = "matters-"

// FileStore persists the whole system's single document in one JSON file.
// It serves exactly one implicit user, so the userID argument is ignored; the
// server refuses to pair it with multi-tenant identity at startup.
//
// Every successful Replace also drops a timestamped snapshot into the backup
// directory and prunes the set down to the configured cap. That rotation is an
// automatic safety net, separate from user-triggered export.
type FileStore struct {
	path      string
	backupDir string
	keep      int
}

// NewFileStore creates a file-backed store. keep caps the rotating snapshot
// set; values below 1 are treated as 1.
func NewFileStore(path, backupDir string, keep int) (*FileStore, error) {
	if keep < 1 {
		keep = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &FileStore{path: path, backupDir: backupDir, keep: keep}, nil
}

// Read returns the stored document, or an empty one when the file does not
// exist yet.
func (s *FileStore) Read(_ context.Context, _ string) (models.Document, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return models.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}

	var doc models.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document file: %w", err)
	}
	return doc.Normalize(), nil
}

// Replace writes the document to a temporary file and renames it over the
// target, so a concurrent reader never observes a partial write.
func (s *FileStore) Replace(_ context.Context, _ string, doc models.Document) error {
	if doc == nil {
		doc = models.Document{}
	}
	payload, err := json.MarshalIndent(doc.Normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace document file: %w", err)
	}

	if err := s.snapshot(payload); err != nil {
		// The primary write succeeded; a failed snapshot is logged, not fatal.
		log.Printf("⚠️  Failed to write document snapshot: %v", err)
	}
	return nil
}

// snapshot writes a timestamped copy and prunes the rotation set.
func (s *FileStore) snapshot(payload []byte) error {
	// Millisecond suffix keeps rapid consecutive saves from colliding.
	stamp := strings.ReplaceAll(time.Now().UTC().Format("20060102-150405.000"), ".", "-")
	name := fmt.Sprintf("%s%s.json", snapshotPrefix, stamp)
	if err := os.WriteFile(filepath.Join(s.backupDir, name), payload, 0o644); err != nil {
		return err
	}
	_, err := s.PruneSnapshots()
	return err
}

// PruneSnapshots deletes snapshots beyond the retention cap, oldest first,
// and returns how many were removed. The jobs package also calls this on a
// schedule so stale sets shrink even without new writes.
func (s *FileStore) PruneSnapshots() (int, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return 0, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), snapshotPrefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.keep {
		return 0, nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(names)
	removed := 0
	for _, name := range names[:len(names)-s.keep] {
		if err := os.Remove(filepath.Join(s.backupDir, name)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
