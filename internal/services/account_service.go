package services

import (
	"context"
	"fmt"
	"log"

	"mattertrack/internal/models"
	"mattertrack/internal/store"
	"mattertrack/pkg/auth"
)

// AccountService is the DB-backed identity mode: users and sessions in
// sqlite, argon2id hashes, opaque session tokens.
type AccountService struct {
	users    *UserService
	sessions *SessionService
	docs     store.DocumentStore
}

// NewAccountService creates the multi-tenant identity service. The document
// store is used to seed an empty document at registration.
func NewAccountService(users *UserService, sessions *SessionService, docs store.DocumentStore) *AccountService {
	return &AccountService{users: users, sessions: sessions, docs: docs}
}

// Register creates the account, seeds its empty document and logs it in.
func (s *AccountService) Register(ctx context.Context, email, password, displayName string) (models.Identity, *SessionToken, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return models.Identity{}, nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return models.Identity{}, nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.Identity{}, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, hash, displayName)
	if err != nil {
		return models.Identity{}, nil, err
	}

	if err := s.docs.Replace(ctx, user.ID, models.Document{}); err != nil {
		// The account exists; first Read would return empty anyway.
		log.Printf("⚠️  Failed to seed empty document for %s: %v", user.ID, err)
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return models.Identity{}, nil, err
	}

	log.Printf("✅ User registered: %s (%s)", user.Email, user.ID)
	return identityOf(user), &SessionToken{Value: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

// Login verifies credentials and issues a session. Unknown email and bad
// password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (models.Identity, *SessionToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return models.Identity{}, nil, err
	}
	if user == nil {
		return models.Identity{}, nil, ErrUnauthorized
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		log.Printf("⚠️  Failed login attempt for %s", NormalizeEmail(email))
		return models.Identity{}, nil, ErrUnauthorized
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return models.Identity{}, nil, err
	}

	log.Printf("✅ User logged in: %s (%s)", user.Email, user.ID)
	return identityOf(user), &SessionToken{Value: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

// Logout destroys the session unconditionally.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// Resolve maps a session cookie to the account behind it.
func (s *AccountService) Resolve(ctx context.Context, token string) (models.Identity, error) {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return models.Identity{}, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return models.Identity{}, err
	}
	if user == nil {
		// Account deleted under a live session.
		_ = s.sessions.Destroy(ctx, token)
		return models.Identity{}, ErrAuthRequired
	}
	return identityOf(user), nil
}

// ChangePassword verifies the old password, validates the new one, re-hashes.
func (s *AccountService) ChangePassword(ctx context.Context, id models.Identity, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrAuthRequired
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, oldPassword)
	if err != nil || !ok {
		return ErrUnauthorized
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePasswordHash(ctx, user.ID, hash)
}

// UpdateProfile sets or clears the display name. Sessions carry no profile
// state in this mode, so no replacement token is needed.
func (s *AccountService) UpdateProfile(ctx context.Context, id models.Identity, _ string, displayName string) (*SessionToken, error) {
	if err := s.users.UpdateDisplayName(ctx, id.UserID, displayName); err != nil {
		return nil, err
	}
	return nil, nil
}

func identityOf(u *models.User) models.Identity {
	return models.Identity{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}
