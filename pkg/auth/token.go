package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StatelessTokenSigner issues and verifies HMAC-signed session tokens for the
// no-database deployment: there is no sessions table to hold server-side
// state, so the cookie itself carries the (single, implicit) identity and the
// cached display name.
type StatelessTokenSigner struct {
	secretKey []byte
	ttl       time.Duration
}

// NewStatelessTokenSigner creates a signer. The secret must be non-empty.
func NewStatelessTokenSigner(secret string, ttl time.Duration) (*StatelessTokenSigner, error) {
	if secret == "" {
		return nil, errors.New("session secret cannot be empty")
	}
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &StatelessTokenSigner{secretKey: []byte(secret), ttl: ttl}, nil
}

// SessionClaims are the claims carried by a stateless session token.
type SessionClaims struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Sign issues a token bound to userID.
func (s *StatelessTokenSigner) Sign(userID, email, displayName string) (string, time.Time, error) {
	expires := time.Now().Add(s.ttl)
	claims := SessionClaims{
		Email:       email,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "mattertrack",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, expires, nil
}

// Verify parses and validates a token, returning its claims.
func (s *StatelessTokenSigner) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
