package models

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the body of POST /api/auth/change-password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UpdateProfileRequest is the body of PATCH /api/me. A nil DisplayName leaves
// the name untouched; an empty string clears it.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	OK          bool   `json:"ok"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// MeResponse is returned by GET /api/me. UserID is null when anonymous;
// checking session state is a normal call, not an error.
type MeResponse struct {
	UserID      *string `json:"userId"`
	Email       string  `json:"email,omitempty"`
	DisplayName string  `json:"displayName,omitempty"`
}
