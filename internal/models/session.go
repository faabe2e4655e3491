package models

import "time"

// Session is the durable record of one issued refresh token. The raw token
// string is never stored; the high-entropy TokenID (jti) embedded in the
// signed token is the lookup key.
type Session struct {
	ID        int64
	UserID    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
	RevokedAt *time.Time
}

// Revoked reports whether the session has been permanently invalidated.
// RevokedAt is a one-way transition: once set it is never cleared.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// ClientMeta is opaque audit metadata captured at the transport boundary.
// Neither field is parsed or validated beyond "present or empty".
type ClientMeta struct {
	IPAddress string
	UserAgent string
}
