package services

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mattertrack/internal/database"
	"mattertrack/internal/models"
	"mattertrack/internal/store"
)

func newTestBackupService(t *testing.T) (*BackupService, *DocumentService, models.Identity) {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "backup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Initialize())

	_, err = db.Exec(`INSERT INTO users (id, email, password_hash) VALUES ('u1', 'a@b.c', 'h')`)
	require.NoError(t, err)

	docs := NewDocumentService(store.NewSQLStore(db), nil)
	return NewBackupService(docs, nil), docs, models.Identity{UserID: "u1"}
}

func TestExportWrapsCurrentDocument(t *testing.T) {
	backups, docs, id := newTestBackupService(t)
	ctx := context.Background()

	want := models.Document{{Name: "p", Issues: []models.Issue{{Issue: "i", Statuses: []string{"s"}}}}}
	require.NoError(t, docs.Replace(ctx, id, want))

	artifact, err := backups.Export(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, want, artifact.Payload)
}

func TestExportIsIdempotent(t *testing.T) {
	backups, docs, id := newTestBackupService(t)
	ctx := context.Background()

	require.NoError(t, docs.Replace(ctx, id, models.Document{{Name: "p", Issues: []models.Issue{}}}))

	first, err := backups.Export(ctx, id)
	require.NoError(t, err)
	second, err := backups.Export(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestImportReplacesDocument(t *testing.T) {
	backups, docs, id := newTestBackupService(t)
	ctx := context.Background()

	require.NoError(t, docs.Replace(ctx, id, models.Document{{Name: "old", Issues: []models.Issue{}}}))

	payload := json.RawMessage(`[{"name":"restored","issues":[{"issue":"i","statuses":[""],"closed":false}]}]`)
	require.NoError(t, backups.Import(ctx, id, &models.BackupArtifact{Payload: payload}))

	got, err := docs.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "restored", got[0].Name)
}

func TestImportRejectsNonArrayPayloads(t *testing.T) {
	backups, docs, id := newTestBackupService(t)
	ctx := context.Background()

	before := models.Document{{Name: "keep me", Issues: []models.Issue{}}}
	require.NoError(t, docs.Replace(ctx, id, before))

	for _, raw := range []string{`{}`, `"x"`, `null`, `17`} {
		err := backups.Import(ctx, id, &models.BackupArtifact{Payload: json.RawMessage(raw)})
		assert.ErrorIs(t, err, ErrInvalidInput, "payload %s", raw)
	}
	err := backups.Import(ctx, id, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Stored document is untouched after every rejected restore.
	got, err := docs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, got)
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	name := ExportFilename(now)
	assert.Equal(t, "mattertrack-backup-2026-03-14T15-09-26Z.json", name)
	assert.NotContains(t, name, ":")
}
