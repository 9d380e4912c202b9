// Package service holds the marketplace operations. Every operation resolves
// the caller through authz.Enforcer before touching a store.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/printhub/internal/actorctx"
	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/user"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// invalid turns ozzo validation errors into an apperr.Validation with
// per-field details.
func invalid(err error) error {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for field, fe := range verrs {
			details[field] = fe.Error()
		}
		return apperr.Validation("Some fields are invalid.", details)
	}

	return apperr.Validation(err.Error(), nil)
}

var errProfileNotStored = errors.New("profile has no stored row")

// requireStored rejects writes that would reference the caller's profile row
// while the caller only has a synthesized profile.
func requireStored(me user.Profile, op string) error {
	if me.Synthesized {
		return apperr.Upstream(op, errProfileNotStored)
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// Page is one offset-paginated slice of a listing.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func callerID(ctx context.Context) string {
	id, _ := actorctx.UserIDFrom(ctx)
	return id
}
