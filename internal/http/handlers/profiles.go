package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/service"
	"github.com/gin-gonic/gin"
)

type ProfileService interface {
	Me(ctx context.Context) (user.Profile, error)
	UpdateMe(ctx context.Context, req user.UpdateProfileRequest) (user.Profile, error)
	UploadAvatar(ctx context.Context, file service.Upload) (user.Profile, error)
	Public(ctx context.Context, id string) (user.PublicProfile, error)
	List(ctx context.Context, f user.ListProfilesFilter) (service.Page[user.Profile], error)
}

type ProfilesHandler struct {
	svc ProfileService
}

func NewProfilesHandler(svc ProfileService) *ProfilesHandler {
	return &ProfilesHandler{svc: svc}
}

// GET /me
func (h *ProfilesHandler) Me(ctx *gin.Context) {
	p, err := h.svc.Me(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

// PATCH /me
func (h *ProfilesHandler) UpdateMe(ctx *gin.Context) {
	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.svc.UpdateMe(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

// PUT /me/avatar (multipart, field "file")
func (h *ProfilesHandler) UploadAvatar(ctx *gin.Context) {
	file, closeFn, ok := formFile(ctx)
	if !ok {
		return
	}
	defer closeFn()

	p, err := h.svc.UploadAvatar(ctx.Request.Context(), file)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

// GET /profiles/:id
func (h *ProfilesHandler) Public(ctx *gin.Context) {
	p, err := h.svc.Public(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

// GET /admin/profiles?role=designer&q=ada
func (h *ProfilesHandler) List(ctx *gin.Context) {
	limit, offset := pageParams(ctx)
	f := user.ListProfilesFilter{Query: optionalQuery(ctx, "q"), Limit: limit, Offset: offset}
	if r := optionalQuery(ctx, "role"); r != nil {
		role := user.Role(*r)
		f.Role = &role
	}

	page, err := h.svc.List(ctx.Request.Context(), f)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}
