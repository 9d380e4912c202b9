// Package profile resolves the durable user profile behind a session.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/auth"
	"github.com/geocoder89/printhub/internal/domain/user"
)

type Store interface {
	GetByID(ctx context.Context, id string) (user.Profile, error)
	Create(ctx context.Context, p user.Profile) (user.Profile, error)
}

type FallbackRecorder interface {
	RecordSynthesizedProfile()
}

// Resolver returns the profile for a session, creating it on first sight.
type Resolver struct {
	store     Store
	log       *slog.Logger
	now       func() time.Time
	fallbacks FallbackRecorder
}

func NewResolver(store Store, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{store: store, log: log, now: time.Now}
}

// WithFallbackRecorder counts every synthesized profile handed out.
func (r *Resolver) WithFallbackRecorder(rec FallbackRecorder) *Resolver {
	r.fallbacks = rec
	return r
}

// Resolve returns the stored profile for s.UserID. When none exists it builds
// one from the session metadata and persists it. If persisting fails the
// synthesized profile is returned anyway (Synthesized=true) so sign-in is
// never blocked by a profile write.
func (r *Resolver) Resolve(ctx context.Context, s *auth.Session) (user.Profile, error) {
	if s == nil {
		return user.Profile{}, apperr.NotAuthenticated("You need to sign in to continue.")
	}

	p, err := r.store.GetByID(ctx, s.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return user.Profile{}, err
	}

	draft := Synthesize(s, r.now().UTC())

	created, err := r.store.Create(ctx, draft)
	if err == nil {
		r.log.InfoContext(ctx, "profile created", "user_id", created.ID, "role", string(created.Role))
		return created, nil
	}

	// lost a race with a concurrent first request for the same user
	if errors.Is(err, apperr.ErrConflict) {
		if existing, getErr := r.store.GetByID(ctx, s.UserID); getErr == nil {
			return existing, nil
		}
	}

	r.log.WarnContext(ctx, "profile persist failed, continuing with synthesized profile",
		"user_id", s.UserID, "err", err)

	if r.fallbacks != nil {
		r.fallbacks.RecordSynthesizedProfile()
	}

	draft.Synthesized = true
	return draft, nil
}

// Synthesize builds an unpersisted profile from session metadata.
func Synthesize(s *auth.Session, now time.Time) user.Profile {
	first := strings.TrimSpace(s.Metadata.FirstName)
	last := strings.TrimSpace(s.Metadata.LastName)

	if first == "" && last == "" {
		first = localPart(s.Email)
	}

	return user.Profile{
		ID:        s.UserID,
		FirstName: first,
		LastName:  last,
		Email:     s.Email,
		Role:      user.ParseSignupRole(s.Metadata.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
