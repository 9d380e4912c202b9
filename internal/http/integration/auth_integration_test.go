package integration_test

import (
	"net/http"
	"testing"
)

func TestAuthIntegration_Signup_Refresh_Logout(t *testing.T) {
	router, _ := setupRouter(t)

	body := `{"email":"sam@example.com","password":"password123","firstName":"Sam","role":"designer"}`
	w := doRequest(router, http.MethodPost, "/auth/signup", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	var signup tokenResponse
	mustReadJSON(t, w, &signup)
	if signup.Profile.Role != "designer" {
		t.Fatalf("expected designer profile, got %q", signup.Profile.Role)
	}
	first := refreshCookie(t, w)

	w2 := doRequest(router, http.MethodPost, "/auth/refresh", "", "", first)
	if w2.Code != http.StatusOK {
		t.Fatalf("refresh got status %d, body=%s", w2.Code, w2.Body.String())
	}
	rotated := refreshCookie(t, w2)

	// the old cookie was rotated away; presenting it again revokes the family
	w3 := doRequest(router, http.MethodPost, "/auth/refresh", "", "", first)
	if w3.Code != http.StatusUnauthorized {
		t.Fatalf("refresh(old cookie) got status %d, want %d", w3.Code, http.StatusUnauthorized)
	}

	w4 := doRequest(router, http.MethodPost, "/auth/refresh", "", "", rotated)
	if w4.Code != http.StatusUnauthorized {
		t.Fatalf("refresh(after reuse) got status %d, want %d", w4.Code, http.StatusUnauthorized)
	}

	// fresh login still works
	w5 := doRequest(router, http.MethodPost, "/auth/login", `{"email":"sam@example.com","password":"password123"}`, "")
	if w5.Code != http.StatusOK {
		t.Fatalf("login got status %d, body=%s", w5.Code, w5.Body.String())
	}

	w6 := doRequest(router, http.MethodPost, "/auth/logout", "", "", refreshCookie(t, w5))
	if w6.Code != http.StatusNoContent {
		t.Fatalf("logout got status %d", w6.Code)
	}
}

func TestAuthIntegration_RejectsAdminSignupAndDuplicates(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/auth/signup",
		`{"email":"boss@example.com","password":"password123","firstName":"Boss","role":"admin"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("admin signup got status %d, want %d", w.Code, http.StatusBadRequest)
	}

	signUp(t, router, "dup@example.com", "customer")

	w2 := doRequest(router, http.MethodPost, "/auth/signup",
		`{"email":"DUP@example.com","password":"password123","firstName":"Dup"}`, "")
	if w2.Code != http.StatusConflict {
		t.Fatalf("duplicate signup got status %d, want %d", w2.Code, http.StatusConflict)
	}
	var e apiErrorResponse
	mustReadJSON(t, w2, &e)
	if e.Error.Code != "email_taken" {
		t.Fatalf("expected email_taken, got %s", e.Error.Code)
	}
}

func TestAuthIntegration_Login_InvalidCredentials(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/auth/login", `{"email":"nope@example.com","password":"wrong"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login(invalid creds) got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}
}
