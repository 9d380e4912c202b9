package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/printhub/internal/auth"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/http/handlers"
	"github.com/geocoder89/printhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type staticVerifier struct{}

func (staticVerifier) VerifySession(token string) (*auth.Session, error) {
	if token != "customer-token" {
		return nil, errors.New("bad token")
	}
	return &auth.Session{UserID: "c1"}, nil
}

// customerChecker resolves every session to a customer profile.
type customerChecker struct{}

func (customerChecker) Check(_ context.Context, req authz.Requirement) (user.Profile, error) {
	p := user.Profile{ID: "c1", Role: user.RoleCustomer}
	if req.Role != "" && req.Role != p.Role {
		return user.Profile{}, authz.Deny(authz.ReasonWrongRole).Err()
	}
	return p, nil
}

func testRouter(withAuth bool) *gin.Engine {
	h := Handlers{
		Profiles:      handlers.NewProfilesHandler(nil),
		Designs:       handlers.NewDesignsHandler(nil),
		Products:      handlers.NewProductsHandler(nil),
		Orders:        handlers.NewOrdersHandler(nil),
		Notifications: handlers.NewNotificationsHandler(nil),
		Dashboards:    handlers.NewDashboardsHandler(nil),
		AdminJobs:     handlers.NewAdminJobsHandler(nil),
		Health:        handlers.NewHealthHandler(nil),
	}
	if withAuth {
		h.Auth = handlers.NewAuthHandler(nil, false)
	}

	return NewRouter(
		RouterConfig{Env: "test", ServiceName: "printhub-test", MaxBodyBytes: 1 << 10, MaxUploadBytes: 1 << 10},
		Deps{
			Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
			Sessions: middlewares.NewSessionMiddleware(staticVerifier{}),
			Checker:  customerChecker{},
		},
		h,
	)
}

func TestRouter_GatesBeforeHandlers(t *testing.T) {
	r := testRouter(true)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"me needs a session", http.MethodGet, "/me", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/me/notifications", "forged", http.StatusUnauthorized},
		{"designer route, customer session", http.MethodGet, "/dashboard/designer", "customer-token", http.StatusForbidden},
		{"dropshipper route, customer session", http.MethodGet, "/me/products", "customer-token", http.StatusForbidden},
		{"admin route, customer session", http.MethodGet, "/admin/jobs", "customer-token", http.StatusForbidden},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if w.Header().Get("X-Request-Id") == "" {
				t.Fatalf("missing request id header")
			}
		})
	}
}

func TestRouter_HostedModeHasNoAuthRoutes(t *testing.T) {
	r := testRouter(false)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}
