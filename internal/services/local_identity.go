package services

import (
	"context"
	"fmt"

	"mattertrack/internal/models"
	"mattertrack/pkg/auth"
)

// LocalIdentityService is the degraded single-tenant mode that pairs with the
// file store: no user table, every request resolves to one fixed identity.
// Login and register succeed unconditionally and issue a signed stateless
// cookie that caches the email and display name, since there is nowhere else to
// keep them. Two browsers pointed at the same server share the same data;
// that is the documented dev-only trade-off, not a multi-tenant guarantee.
type LocalIdentityService struct {
	signer *auth.StatelessTokenSigner
}

// NewLocalIdentityService creates the single-tenant identity service.
func NewLocalIdentityService(signer *auth.StatelessTokenSigner) *LocalIdentityService {
	return &LocalIdentityService{signer: signer}
}

// Register behaves like Login: there are no accounts to create.
func (s *LocalIdentityService) Register(ctx context.Context, email, password, displayName string) (models.Identity, *SessionToken, error) {
	return s.issue(NormalizeEmail(email), displayName)
}

// Login accepts any credentials and binds the cookie to the fixed identity.
func (s *LocalIdentityService) Login(ctx context.Context, email, password string) (models.Identity, *SessionToken, error) {
	return s.issue(NormalizeEmail(email), "")
}

// Logout is a no-op beyond the cookie the handler clears; the token is
// stateless, so there is nothing server-side to destroy.
func (s *LocalIdentityService) Logout(ctx context.Context, token string) error {
	return nil
}

// Resolve verifies the signed cookie and returns the fixed identity with
// whatever profile data the token caches.
func (s *LocalIdentityService) Resolve(ctx context.Context, token string) (models.Identity, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return models.Identity{}, ErrAuthRequired
	}
	return models.Identity{
		UserID:      models.LocalUserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
	}, nil
}

// ChangePassword cannot work without a credential store.
func (s *LocalIdentityService) ChangePassword(ctx context.Context, id models.Identity, oldPassword, newPassword string) error {
	return fmt.Errorf("%w: password changes require the database backend", ErrInvalidInput)
}

// UpdateProfile reissues the cookie with the new display name cached in it.
func (s *LocalIdentityService) UpdateProfile(ctx context.Context, id models.Identity, token, displayName string) (*SessionToken, error) {
	value, expires, err := s.signer.Sign(models.LocalUserID, id.Email, displayName)
	if err != nil {
		return nil, err
	}
	return &SessionToken{Value: value, ExpiresAt: expires}, nil
}

func (s *LocalIdentityService) issue(email, displayName string) (models.Identity, *SessionToken, error) {
	value, expires, err := s.signer.Sign(models.LocalUserID, email, displayName)
	if err != nil {
		return models.Identity{}, nil, err
	}
	id := models.Identity{UserID: models.LocalUserID, Email: email, DisplayName: displayName}
	return id, &SessionToken{Value: value, ExpiresAt: expires}, nil
}
