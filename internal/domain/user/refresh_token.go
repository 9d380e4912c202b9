package user

import "time"

// RefreshToken is one stored refresh token. Only the HMAC of the token is kept;
// a rotated token points at its successor through ReplacedBy.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}
