package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/printhub/internal/actorctx"
	"github.com/geocoder89/printhub/internal/auth"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware verifies bearer tokens against whichever session provider
// is configured and puts the session on the request context.
type SessionMiddleware struct {
	verifier auth.SessionVerifier
	now      func() time.Time
}

func NewSessionMiddleware(verifier auth.SessionVerifier) *SessionMiddleware {
	return &SessionMiddleware{verifier: verifier, now: time.Now}
}

// RequireSession rejects requests without a valid session.
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "not_authenticated", "Missing or invalid Authorization header")
			return
		}

		if !m.attach(c, raw) {
			abortJSON(c, http.StatusUnauthorized, "not_authenticated", "Invalid or expired access token")
			return
		}

		c.Next()
	}
}

// OptionalSession attaches a session when a valid token is presented and
// otherwise lets the request through anonymously. A bad token is treated as
// no token.
func (m *SessionMiddleware) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			m.attach(c, raw)
		}
		c.Next()
	}
}

func (m *SessionMiddleware) attach(c *gin.Context, raw string) bool {
	s, err := m.verifier.VerifySession(raw)
	if err != nil || s == nil || s.UserID == "" || s.Expired(m.now()) {
		return false
	}

	c.Set(CtxSession, s)
	c.Set(CtxUserID, s.UserID)
	c.Request = c.Request.WithContext(actorctx.WithSession(c.Request.Context(), s))
	return true
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}

	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	return raw, raw != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func SessionFromContext(c *gin.Context) *auth.Session {
	v, _ := c.Get(CtxSession)
	s, _ := v.(*auth.Session)
	return s
}
