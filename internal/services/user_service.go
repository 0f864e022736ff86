package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mattertrack/internal/database"
	"mattertrack/internal/models"
)

// UserService owns the users table.
type UserService struct {
	db *database.DB
}

// NewUserService creates a new user service.
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Create inserts a new account. Returns ErrConflict when the email is taken.
func (s *UserService) Create(ctx context.Context, email, passwordHash, displayName string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.PasswordHash, user.DisplayName, user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByEmail returns the account for a (normalized) email, or nil when none
// exists. Absence is not an error here: login folds it into ErrUnauthorized
// so responses cannot be used to enumerate accounts.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, display_name, created_at
		FROM users WHERE email = ?
	`, NormalizeEmail(email)))
}

// GetByID returns the account for an id, or nil when none exists.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, display_name, created_at
		FROM users WHERE id = ?
	`, id))
}

// UpdateDisplayName sets or clears the display name.
func (s *UserService) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET display_name = ? WHERE id = ?", displayName, id)
	if err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash.
func (s *UserService) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *UserService) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	return &u, nil
}
