package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// Metadata is the user metadata the session provider attaches to an identity at
// sign-up. It seeds the profile on first login.
type Metadata struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Session is a verified identity. It is owned by the session provider; the
// application only reads it.
type Session struct {
	UserID    string
	Email     string
	Metadata  Metadata
	SessionID string
	ExpiresAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SessionVerifier turns a bearer token into a Session.
type SessionVerifier interface {
	VerifySession(token string) (*Session, error)
}
