package middlewares

import (
	"context"

	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type Checker interface {
	Check(ctx context.Context, req authz.Requirement) (user.Profile, error)
}

// RequireRole is the route-level role gate. It resolves the caller's profile
// and stops the request with 401 or 403 on a mismatch. Services check again,
// so this only saves work for whole route groups.
func RequireRole(checker Checker, role user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := checker.Check(c.Request.Context(), authz.RequireRole(role)); err != nil {
			abortErr(c, err)
			return
		}
		c.Next()
	}
}
