package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/auth"
	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/jobs"
	"github.com/geocoder89/printhub/internal/security"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (user.Account, error)
	Create(ctx context.Context, a user.Account) (user.Account, error)
}

type RefreshStore interface {
	Issue(ctx context.Context, row user.RefreshToken) error
	Rotate(ctx context.Context, oldID, presentedHash string, next user.RefreshToken) error
	RevokeOne(ctx context.Context, id string) error
}

type JobEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type SessionResolver interface {
	Resolve(ctx context.Context, s *auth.Session) (user.Profile, error)
}

// Tokens is what sign-in hands back to the client.
type Tokens struct {
	AccessToken      string        `json:"accessToken"`
	RefreshToken     string        `json:"-"`
	RefreshExpiresAt time.Time     `json:"-"`
	Profile          *user.Profile `json:"profile,omitempty"`
}

// AuthService is the built-in session provider: accounts, password sign-in
// and refresh token rotation.
type AuthService struct {
	accounts AccountStore
	refresh  RefreshStore
	tokens   *auth.Manager
	profiles SessionResolver
	jobs     JobEnqueuer
	log      *slog.Logger
}

func NewAuthService(accounts AccountStore, refresh RefreshStore, tokens *auth.Manager, profiles SessionResolver, jobs JobEnqueuer, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{accounts: accounts, refresh: refresh, tokens: tokens, profiles: profiles, jobs: jobs, log: log}
}

var errInvalidCredentials = apperr.NotAuthenticated("Email or password is incorrect.")

func (s *AuthService) SignUp(ctx context.Context, req user.SignupRequest) (Tokens, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = security.PlainText(req.FirstName)
	req.LastName = security.PlainText(req.LastName)
	if req.Role == "" {
		req.Role = user.RoleCustomer
	}

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat, validation.Length(3, 254)),
		validation.Field(&req.Password, validation.Required, validation.Length(8, security.MaxPasswordBytes)),
		validation.Field(&req.FirstName, validation.Required, validation.Length(1, 80)),
		validation.Field(&req.LastName, validation.Length(0, 80)),
		// admins are seeded from config, never self-registered
		validation.Field(&req.Role, validation.In(user.RoleCustomer, user.RoleDesigner, user.RoleDropshipper)),
	); err != nil {
		return Tokens{}, invalid(err)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return Tokens{}, apperr.Validation("Password is too long.", map[string]string{"password": "too_long"})
	}

	a, err := s.accounts.Create(ctx, user.Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return Tokens{}, apperr.Conflict("email_taken", "Email is already in use.")
		}
		return Tokens{}, err
	}

	t, err := s.issue(ctx, a)
	if err != nil {
		return Tokens{}, err
	}

	s.enqueueWelcome(ctx, a)
	s.log.InfoContext(ctx, "account created", "user_id", a.ID, "role", string(a.Role))
	return t, nil
}

func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (Tokens, error) {
	a, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Tokens{}, errInvalidCredentials
		}
		return Tokens{}, err
	}

	if err := security.CheckPassword(a.PasswordHash, req.Password); err != nil {
		return Tokens{}, errInvalidCredentials
	}

	return s.issue(ctx, a)
}

// Refresh rotates the refresh token and mints a new access token.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Tokens, error) {
	if raw == "" {
		return Tokens{}, apperr.NotAuthenticated("Missing refresh token.")
	}

	claims, err := s.tokens.VerifyRefreshToken(raw)
	if err != nil {
		return Tokens{}, apperr.NotAuthenticated("Invalid refresh token.")
	}

	id := auth.Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Metadata:  claims.UserMetadata,
		SessionID: claims.SessionID,
	}

	newRaw, newJTI, expiresAt, err := s.tokens.GenerateRefreshToken(id)
	if err != nil {
		return Tokens{}, apperr.Upstream("auth.refresh_token", err)
	}

	next := user.RefreshToken{
		ID:        newJTI,
		UserID:    claims.UserID,
		TokenHash: s.tokens.HashRefreshToken(newRaw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.refresh.Rotate(ctx, claims.JTI, s.tokens.HashRefreshToken(raw), next); err != nil {
		return Tokens{}, err
	}

	access, err := s.tokens.GenerateAccessToken(id)
	if err != nil {
		return Tokens{}, apperr.Upstream("auth.access_token", err)
	}

	return Tokens{AccessToken: access, RefreshToken: newRaw, RefreshExpiresAt: expiresAt}, nil
}

// Logout revokes the presented refresh token. It never fails for the caller.
func (s *AuthService) Logout(ctx context.Context, raw string) {
	if raw == "" {
		return
	}
	claims, err := s.tokens.VerifyRefreshToken(raw)
	if err != nil {
		return
	}
	if err := s.refresh.RevokeOne(ctx, claims.JTI); err != nil {
		s.log.WarnContext(ctx, "revoke refresh token", "user_id", claims.UserID, "err", err)
	}
}

func (s *AuthService) issue(ctx context.Context, a user.Account) (Tokens, error) {
	id := auth.Identity{
		UserID: a.ID,
		Email:  a.Email,
		Metadata: auth.Metadata{
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Role:      string(a.Role),
		},
		SessionID: uuid.NewString(),
	}

	access, err := s.tokens.GenerateAccessToken(id)
	if err != nil {
		return Tokens{}, apperr.Upstream("auth.access_token", err)
	}

	raw, jti, expiresAt, err := s.tokens.GenerateRefreshToken(id)
	if err != nil {
		return Tokens{}, apperr.Upstream("auth.refresh_token", err)
	}

	if err := s.refresh.Issue(ctx, user.RefreshToken{
		ID:        jti,
		UserID:    a.ID,
		TokenHash: s.tokens.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return Tokens{}, err
	}

	t := Tokens{AccessToken: access, RefreshToken: raw, RefreshExpiresAt: expiresAt}

	// resolve eagerly so the profile row exists before the first guarded call;
	// a failure here must not block sign-in
	if s.profiles != nil {
		sess := &auth.Session{UserID: id.UserID, Email: id.Email, Metadata: id.Metadata, SessionID: id.SessionID}
		if p, err := s.profiles.Resolve(ctx, sess); err != nil {
			s.log.WarnContext(ctx, "eager profile resolve failed", "user_id", a.ID, "err", err)
		} else {
			t.Profile = &p
		}
	}

	return t, nil
}

func (s *AuthService) enqueueWelcome(ctx context.Context, a user.Account) {
	if s.jobs == nil {
		return
	}

	req, err := jobs.NewRequest(jobs.JobWelcome, jobs.WelcomePayload{UserID: a.ID, FirstName: a.FirstName}, a.ID, "user.welcome:"+a.ID)
	if err == nil {
		_, err = s.jobs.Create(ctx, req)
	}
	if err != nil {
		s.log.WarnContext(ctx, "enqueue welcome failed", "user_id", a.ID, "err", err)
	}
}
