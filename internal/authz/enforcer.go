package authz

import (
	"context"
	"log/slog"

	"github.com/geocoder89/printhub/internal/actorctx"
	"github.com/geocoder89/printhub/internal/auth"
	"github.com/geocoder89/printhub/internal/domain/user"
)

type ProfileResolver interface {
	Resolve(ctx context.Context, s *auth.Session) (user.Profile, error)
}

type DecisionRecorder interface {
	RecordDecision(d Decision)
}

// Enforcer runs the authorization check for one operation. The profile is
// fetched fresh on every call; nothing is cached between checks.
type Enforcer struct {
	profiles ProfileResolver
	recorder DecisionRecorder
	log      *slog.Logger
}

func NewEnforcer(profiles ProfileResolver, recorder DecisionRecorder, log *slog.Logger) *Enforcer {
	if log == nil {
		log = slog.Default()
	}
	return &Enforcer{profiles: profiles, recorder: recorder, log: log}
}

// Check evaluates req against the session in ctx and returns the actor's
// profile when allowed. The subsequent write is not atomic with this check.
func (e *Enforcer) Check(ctx context.Context, req Requirement) (user.Profile, error) {
	s := actorctx.SessionFrom(ctx)
	if s == nil {
		return user.Profile{}, e.finish(ctx, nil, req, Deny(ReasonNoSession))
	}

	p, err := e.profiles.Resolve(ctx, s)
	if err != nil {
		return user.Profile{}, err
	}

	d := Authorize(s, &p, req)

	return p, e.finish(ctx, s, req, d)
}

// Session returns the session in ctx or a NotAuthenticated error, for
// operations that only need an identity and no profile.
func (e *Enforcer) Session(ctx context.Context) (*auth.Session, error) {
	s := actorctx.SessionFrom(ctx)
	if s == nil {
		return nil, e.finish(ctx, nil, Requirement{}, Deny(ReasonNoSession))
	}
	return s, nil
}

func (e *Enforcer) finish(ctx context.Context, s *auth.Session, req Requirement, d Decision) error {
	if e.recorder != nil {
		e.recorder.RecordDecision(d)
	}

	if d.Allowed {
		return nil
	}

	attrs := []any{
		"reason", string(d.Reason),
		"required_role", string(req.Role),
	}
	if s != nil {
		attrs = append(attrs, "user_id", s.UserID)
	}
	if req.OwnerID != "" {
		attrs = append(attrs, "owner_id", req.OwnerID)
	}
	e.log.InfoContext(ctx, "authorization denied", attrs...)

	return d.Err()
}
