package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mattertrack/internal/database"
	"mattertrack/internal/models"
	"mattertrack/pkg/auth"
)

// SessionService owns the sessions table: opaque tokens bound to user ids for
// a fixed TTL.
type SessionService struct {
	db  *database.DB
	ttl time.Duration
}

// NewSessionService creates a new session service. A zero ttl falls back to
// 30 days; negative values are honored so tests can mint already-expired
// sessions.
func NewSessionService(db *database.DB, ttl time.Duration) *SessionService {
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionService{db: db, ttl: ttl}
}

// Create issues a fresh session for a user.
func (s *SessionService) Create(ctx context.Context, userID string) (*models.Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &models.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, session.Token, session.UserID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Get resolves a token to its session. Unknown or expired tokens return
// ErrAuthRequired; expired rows are deleted on sight.
func (s *SessionService) Get(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?
	`, token).Scan(&session.Token, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrAuthRequired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if session.Expired() {
		_ = s.Destroy(ctx, token)
		return nil, ErrAuthRequired
	}
	return &session, nil
}

// Destroy removes a session. Destroying an absent session is a no-op.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// PurgeExpired deletes all sessions past their TTL and reports how many went.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Count returns the number of live sessions (for the metrics gauge).
func (s *SessionService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE expires_at >= ?", time.Now().UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
