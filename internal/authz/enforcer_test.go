package authz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/geocoder89/printhub/internal/actorctx"
	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/auth"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	calls int
	fn    func(ctx context.Context, s *auth.Session) (user.Profile, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, s *auth.Session) (user.Profile, error) {
	f.calls++
	return f.fn(ctx, s)
}

type recorder struct {
	decisions []Decision
}

func (r *recorder) RecordDecision(d Decision) {
	r.decisions = append(r.decisions, d)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnforcer_NoSessionSkipsProfileFetch(t *testing.T) {
	res := &fakeResolver{fn: func(context.Context, *auth.Session) (user.Profile, error) {
		t.Fatal("resolver must not be called without a session")
		return user.Profile{}, nil
	}}
	rec := &recorder{}
	e := NewEnforcer(res, rec, quietLogger())

	_, err := e.Check(context.Background(), Requirement{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotAuthenticated))
	require.Len(t, rec.decisions, 1)
	assert.Equal(t, ReasonNoSession, rec.decisions[0].Reason)
}

func TestEnforcer_RefetchesProfileEveryCall(t *testing.T) {
	role := user.RoleDesigner
	res := &fakeResolver{fn: func(_ context.Context, s *auth.Session) (user.Profile, error) {
		return user.Profile{ID: s.UserID, Role: role}, nil
	}}
	e := NewEnforcer(res, nil, quietLogger())

	ctx := actorctx.WithSession(context.Background(), &auth.Session{UserID: "u1"})

	p, err := e.Check(ctx, RequireRole(user.RoleDesigner))
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)

	// the stored role changes between calls; the next check sees it
	role = user.RoleCustomer
	_, err = e.Check(ctx, RequireRole(user.RoleDesigner))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	assert.Equal(t, 2, res.calls)
}

func TestEnforcer_PropagatesResolverFailure(t *testing.T) {
	boom := apperr.Upstream("profiles.get", errors.New("db down"))
	res := &fakeResolver{fn: func(context.Context, *auth.Session) (user.Profile, error) {
		return user.Profile{}, boom
	}}
	e := NewEnforcer(res, nil, quietLogger())

	ctx := actorctx.WithSession(context.Background(), &auth.Session{UserID: "u1"})
	_, err := e.Check(ctx, Requirement{})

	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}

func TestEnforcer_OwnershipDenied(t *testing.T) {
	res := &fakeResolver{fn: func(_ context.Context, s *auth.Session) (user.Profile, error) {
		return user.Profile{ID: s.UserID, Role: user.RoleDropshipper}, nil
	}}
	rec := &recorder{}
	e := NewEnforcer(res, rec, quietLogger())

	ctx := actorctx.WithSession(context.Background(), &auth.Session{UserID: "u1"})
	_, err := e.Check(ctx, RequireOwner("u2"))

	e2, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, string(ReasonNotOwner), e2.Code)
	require.Len(t, rec.decisions, 1)
	assert.False(t, rec.decisions[0].Allowed)
}

func TestEnforcer_Session(t *testing.T) {
	e := NewEnforcer(&fakeResolver{}, nil, quietLogger())

	_, err := e.Session(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrNotAuthenticated))

	ctx := actorctx.WithSession(context.Background(), &auth.Session{UserID: "u9"})
	s, err := e.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u9", s.UserID)
}
