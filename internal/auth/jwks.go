package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// HostedClaims is the claim set issued by the hosted auth provider.
type HostedClaims struct {
	jwt.RegisteredClaims
	Email        string   `json:"email"`
	Role         string   `json:"role"` // "authenticated" or "anon"
	UserMetadata Metadata `json:"user_metadata"`
	SessionID    string   `json:"session_id"`
	IsAnonymous  bool     `json:"is_anonymous"`
}

// JWKSVerifier verifies access tokens issued by a hosted provider against its
// published JWKS. Keys are cached and refreshed by keyfunc.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

func NewJWKSVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}

	logger.Info("jwks verifier initialized", "jwks_url", jwksURL)

	return &JWKSVerifier{jwks: jwks, logger: logger}, nil
}

func (v *JWKSVerifier) VerifySession(tokenStr string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &HostedClaims{}, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
	)
	if err != nil {
		v.logger.Debug("hosted token rejected", "err", err)
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*HostedClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims.session()
}

func (c *HostedClaims) session() (*Session, error) {
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}

	// anonymous tokens never count as a session
	if c.Role != "authenticated" || c.IsAnonymous {
		return nil, ErrInvalidToken
	}

	s := &Session{
		UserID:    c.Subject,
		Email:     c.Email,
		Metadata:  c.UserMetadata,
		SessionID: c.SessionID,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}
