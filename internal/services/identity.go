package services

import (
	"context"
	"time"

	"mattertrack/internal/models"
)

// SessionToken is what a successful register/login hands back for the cookie.
type SessionToken struct {
	Value     string
	ExpiresAt time.Time
}

// IdentityService is the seam between HTTP and the two identity modes:
// DB-backed multi-tenant accounts, and the single-tenant stateless mode used
// with the file store. Handlers and middleware only ever see this interface.
type IdentityService interface {
	// Register creates an account and establishes a session.
	// Fails with ErrConflict if the email is already registered and
	// ErrInvalidInput for an undersized password.
	Register(ctx context.Context, email, password, displayName string) (models.Identity, *SessionToken, error)

	// Login establishes a session. Unknown email and wrong password both
	// fail with the same ErrUnauthorized.
	Login(ctx context.Context, email, password string) (models.Identity, *SessionToken, error)

	// Logout destroys the session; idempotent.
	Logout(ctx context.Context, token string) error

	// Resolve maps a session token to its identity, ErrAuthRequired
	// otherwise.
	Resolve(ctx context.Context, token string) (models.Identity, error)

	// ChangePassword re-hashes after verifying the old password
	// (ErrUnauthorized) and validating the new one (ErrInvalidInput).
	ChangePassword(ctx context.Context, id models.Identity, oldPassword, newPassword string) error

	// UpdateProfile sets or clears the display name. When the mode caches
	// profile data inside the token it returns a replacement token;
	// otherwise the token result is nil.
	UpdateProfile(ctx context.Context, id models.Identity, token, displayName string) (*SessionToken, error)
}
