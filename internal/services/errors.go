package services

import "errors"

// Sentinel errors forming the API failure taxonomy. Handlers map these to
// HTTP status codes; anything unrecognized becomes a generic 500 with the
// detail kept server-side.
var (
	// ErrInvalidInput: malformed request body, wrong payload shape,
	// undersized password.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuthRequired: no valid session presented.
	ErrAuthRequired = errors.New("authentication required")

	// ErrUnauthorized: credentials presented but wrong.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict: duplicate registration.
	ErrConflict = errors.New("conflict")

	// ErrNotFound is reserved; no current operation emits it.
	ErrNotFound = errors.New("not found")
)
