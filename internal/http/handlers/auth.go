package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/service"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	SignUp(ctx context.Context, req user.SignupRequest) (service.Tokens, error)
	Login(ctx context.Context, req user.LoginRequest) (service.Tokens, error)
	Refresh(ctx context.Context, raw string) (service.Tokens, error)
	Logout(ctx context.Context, raw string)
}

// AuthHandler serves the built-in session provider. The refresh token only
// ever travels in an HttpOnly cookie scoped to /auth.
type AuthHandler struct {
	svc    AuthService
	secure bool
}

func NewAuthHandler(svc AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{svc: svc, secure: secureCookies}
}

const refreshCookieName = "refresh_token"

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignupRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	t, err := h.svc.SignUp(cctx, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	h.setRefreshCookie(ctx, t.RefreshToken, t.RefreshExpiresAt)
	ctx.JSON(http.StatusCreated, t)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.svc.Login(cctx, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	h.setRefreshCookie(ctx, t.RefreshToken, t.RefreshExpiresAt)
	ctx.JSON(http.StatusOK, t)
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, _ := ctx.Cookie(refreshCookieName)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.svc.Refresh(cctx, raw)
	if err != nil {
		h.clearRefreshCookie(ctx)
		RespondAppError(ctx, err)
		return
	}

	h.setRefreshCookie(ctx, t.RefreshToken, t.RefreshExpiresAt)
	ctx.JSON(http.StatusOK, t)
}

// Logout always succeeds and always clears the cookie.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if raw, err := ctx.Cookie(refreshCookieName); err == nil && raw != "" {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()
		h.svc.Logout(cctx, raw)
	}

	h.clearRefreshCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(refreshCookieName, raw, maxAge, "/auth", "", h.secure, true)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(refreshCookieName, "", -1, "/auth", "", h.secure, true)
}
