package models

import "time"

// User is an account row in the sqlite backend.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Argon2id hash, never exposed in API
	DisplayName  string    `json:"display_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the resolved caller of a request. It is threaded explicitly
// through services so the single-tenant mode is just another identity
// provider, not a shared variable.
type Identity struct {
	UserID      string `json:"userId"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// LocalUserID is the fixed identity of the no-database (file store) mode.
const LocalUserID = "local"
