package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/geocoder89/printhub/internal/app"
	"github.com/geocoder89/printhub/internal/config"
	"github.com/geocoder89/printhub/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// These tests need a real Postgres. Point TEST_DB_DSN at a scratch database;
// every table is truncated between tests.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	return dsn
}

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		AuthMode:            config.AuthModeLocal,
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
		JWTRefreshTTLDays:   7,
		S3Bucket:            "test-bucket",
		MaxUploadBytes:      1 << 20,
	}
}

type memObjects struct{}

func (memObjects) Upload(_ context.Context, bucket, key, _ string, _ io.Reader, _ int64) (string, error) {
	return "https://cdn.example.com/" + bucket + "/" + key, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	dsn := testDSN(t)

	if err := db.RunMigrations(dsn); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	pool, err := db.NewPool(dsn, 5)
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router, err := app.NewAPI(ctx, testConfig(), logger, app.Infra{Pool: pool, Objects: memObjects{}})
	if err != nil {
		t.Fatalf("build api: %v", err)
	}

	resetDB(t, pool)
	t.Cleanup(func() { resetDB(t, pool) })

	return router, pool
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE notification_deliveries, notifications, jobs, orders, products,
		         designs, profiles, refresh_tokens, accounts
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func doRequest(router http.Handler, method, path, body, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	t.Fatalf("refresh_token cookie not found in response")
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	Profile     struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"profile"`
}

type apiErrorResponse struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

// signUp registers a user and returns the access token and user id.
func signUp(t *testing.T, router http.Handler, email, role string) (string, string) {
	t.Helper()

	body := `{"email":"` + email + `","password":"password123","firstName":"Test","role":"` + role + `"}`
	w := doRequest(router, http.MethodPost, "/auth/signup", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s got status %d, body=%s", email, w.Code, w.Body.String())
	}

	var tok tokenResponse
	mustReadJSON(t, w, &tok)
	if tok.AccessToken == "" {
		t.Fatalf("signup expected accessToken, got empty")
	}
	return tok.AccessToken, tok.Profile.ID
}
