package models

import "time"

// Session is an opaque bearer credential stored server-side. The cookie value
// is the token; everything else lives in the sessions table.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its TTL.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}
