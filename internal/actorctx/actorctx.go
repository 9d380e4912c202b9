// Package actorctx carries the verified session explicitly through
// context.Context so services never reach for global session state.
package actorctx

import (
	"context"

	"github.com/geocoder89/printhub/internal/auth"
)

type ctxKey string

const (
	keySession   ctxKey = "session"
	keyRequestID ctxKey = "request_id"
)

func WithSession(ctx context.Context, s *auth.Session) context.Context {
	return context.WithValue(ctx, keySession, s)
}

// SessionFrom returns the session stored in ctx, or nil when the caller is anonymous.
func SessionFrom(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(keySession).(*auth.Session)
	return s
}

func UserIDFrom(ctx context.Context) (string, bool) {
	s := SessionFrom(ctx)
	if s == nil || s.UserID == "" {
		return "", false
	}
	return s.UserID, true
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}
