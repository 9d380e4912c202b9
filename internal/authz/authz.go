// Package authz holds the single authorization check every operation goes
// through: a role gate plus an optional ownership comparison.
package authz

import (
	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/auth"
	"github.com/geocoder89/printhub/internal/domain/user"
)

type Reason string

const (
	ReasonNone      Reason = ""
	ReasonNoSession Reason = "no_session"
	ReasonWrongRole Reason = "wrong_role"
	ReasonNotOwner  Reason = "not_owner"
)

// Message is the user-facing text for a denial reason.
func (r Reason) Message() string {
	switch r {
	case ReasonNoSession:
		return "You need to sign in to continue."
	case ReasonWrongRole:
		return "Your account does not have access to this area."
	case ReasonNotOwner:
		return "You can only change resources that belong to you."
	default:
		return ""
	}
}

type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason Reason) Decision { return Decision{Reason: reason} }

// Err converts a denial into the matching apperr kind; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNoSession {
		return apperr.NotAuthenticated(d.Reason.Message())
	}
	return apperr.Unauthorized(string(d.Reason), d.Reason.Message())
}

// Requirement describes what an operation needs. Zero value means "any
// signed-in user".
type Requirement struct {
	Role    user.Role // empty: any role
	OwnerID string    // empty: no ownership check
	// CoOwners share ownership with OwnerID, e.g. the designer of an ordered design.
	CoOwners []string
}

func RequireRole(r user.Role) Requirement { return Requirement{Role: r} }

func RequireOwner(ownerID string) Requirement { return Requirement{OwnerID: ownerID} }

// RequireAnyOwner passes when the caller is any of ids. Empty ids are ignored.
func RequireAnyOwner(ids ...string) Requirement {
	var req Requirement
	for _, id := range ids {
		if id == "" {
			continue
		}
		if req.OwnerID == "" {
			req.OwnerID = id
			continue
		}
		req.CoOwners = append(req.CoOwners, id)
	}
	return req
}

func (r Requirement) ownedBy(userID string) bool {
	if userID == r.OwnerID {
		return true
	}
	for _, id := range r.CoOwners {
		if id == userID {
			return true
		}
	}
	return false
}

func HasRole(p *user.Profile, required user.Role) bool {
	return p != nil && p.Role == required
}

// Guard is the role gate. It performs no side effects.
func Guard(s *auth.Session, p *user.Profile, required user.Role) Decision {
	if s == nil {
		return Deny(ReasonNoSession)
	}
	if required != "" && !HasRole(p, required) {
		return Deny(ReasonWrongRole)
	}
	return Allow()
}

// Authorize extends Guard with the ownership rule: the session user must own
// the resource, unless the actor is an admin.
func Authorize(s *auth.Session, p *user.Profile, req Requirement) Decision {
	d := Guard(s, p, req.Role)
	if !d.Allowed {
		return d
	}

	if req.OwnerID != "" && !req.ownedBy(s.UserID) && !HasRole(p, user.RoleAdmin) {
		return Deny(ReasonNotOwner)
	}

	return Allow()
}
