package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/printhub/internal/actorctx"
	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/auth"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/profile"
	"github.com/geocoder89/printhub/internal/repo/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// world wires a real Enforcer over an in-memory profile store.
type world struct {
	profiles *memory.ProfilesRepo
	enforcer *authz.Enforcer
}

func newWorld(t *testing.T, people ...user.Profile) *world {
	t.Helper()

	profiles := memory.NewProfilesRepo()
	for _, p := range people {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		if _, err := profiles.Create(context.Background(), p); err != nil {
			t.Fatalf("seed profile %s: %v", p.ID, err)
		}
	}

	resolver := profile.NewResolver(profiles, discardLogger())
	return &world{
		profiles: profiles,
		enforcer: authz.NewEnforcer(resolver, nil, discardLogger()),
	}
}

// staticAuthorizer hands out a fixed profile and allows everything.
type staticAuthorizer struct {
	p user.Profile
}

func (a staticAuthorizer) Check(context.Context, authz.Requirement) (user.Profile, error) {
	return a.p, nil
}

func as(userID string) context.Context {
	return actorctx.WithSession(context.Background(), &auth.Session{UserID: userID})
}

func anonymous() context.Context { return context.Background() }

func person(id string, role user.Role) user.Profile {
	return user.Profile{ID: id, FirstName: id, Role: role}
}

func assertKind(t *testing.T, err error, kind error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", kind)
	}
	e, ok := apperr.As(err)
	if !ok || e.Kind != kind {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}

func assertReason(t *testing.T, err error, reason authz.Reason) {
	t.Helper()
	e, ok := apperr.As(err)
	if !ok || e.Code != string(reason) {
		t.Fatalf("expected reason %q, got %v", reason, err)
	}
}

func ptr[T any](v T) *T { return &v }
