package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if v, ok := ctx.Get(middlewares.CtxRequestID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondAppError renders any error from the service layer. Upstream and
// unclassified failures are logged with their cause and returned with a
// generic message.
func RespondAppError(ctx *gin.Context, err error) {
	status := apperr.HTTPStatus(err)

	e, ok := apperr.As(err)
	if !ok {
		slog.Default().ErrorContext(ctx.Request.Context(), "unhandled error",
			"route", ctx.FullPath(), "err", err)
		RespondInternal(ctx, "Something went wrong, please try again.")
		return
	}

	details := e.Details
	if status >= http.StatusInternalServerError {
		slog.Default().ErrorContext(ctx.Request.Context(), "upstream failure",
			"route", ctx.FullPath(), "op", e.Details, "err", e.Err)
		// op names are internal
		details = nil
	}

	RespondError(ctx, status, e.Code, e.Message, details)
}
