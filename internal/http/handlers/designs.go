package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/printhub/internal/domain/design"
	"github.com/geocoder89/printhub/internal/service"
	"github.com/gin-gonic/gin"
)

type DesignService interface {
	Create(ctx context.Context, req design.CreateDesignRequest) (design.Design, error)
	Get(ctx context.Context, id string) (design.Design, error)
	Update(ctx context.Context, id string, req design.UpdateDesignRequest) (design.Design, error)
	Delete(ctx context.Context, id string) error
	UploadAsset(ctx context.Context, id string, kind design.AssetKind, file service.Upload) (design.Design, error)
	Catalog(ctx context.Context, f design.ListDesignsFilter) (service.Page[design.Design], error)
	Mine(ctx context.Context, f design.ListDesignsFilter) (service.Page[design.Design], error)
}

type DesignsHandler struct {
	svc DesignService
}

func NewDesignsHandler(svc DesignService) *DesignsHandler {
	return &DesignsHandler{svc: svc}
}

func (h *DesignsHandler) Create(ctx *gin.Context) {
	var req design.CreateDesignRequest
	if !BindJSON(ctx, &req) {
		return
	}

	d, err := h.svc.Create(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Header("Location", "/designs/"+d.ID)
	ctx.JSON(http.StatusCreated, d)
}

func (h *DesignsHandler) Get(ctx *gin.Context) {
	d, err := h.svc.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (h *DesignsHandler) Update(ctx *gin.Context) {
	var req design.UpdateDesignRequest
	if !BindJSON(ctx, &req) {
		return
	}

	d, err := h.svc.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (h *DesignsHandler) Delete(ctx *gin.Context) {
	if err := h.svc.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// PUT /designs/:id/assets/:kind (multipart, field "file")
func (h *DesignsHandler) UploadAsset(ctx *gin.Context) {
	file, closeFn, ok := formFile(ctx)
	if !ok {
		return
	}
	defer closeFn()

	d, err := h.svc.UploadAsset(ctx.Request.Context(), ctx.Param("id"), design.AssetKind(ctx.Param("kind")), file)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

// GET /designs?category=&q=&minPrice=&maxPrice=&limit=&offset=
func (h *DesignsHandler) Catalog(ctx *gin.Context) {
	f, ok := designFilter(ctx)
	if !ok {
		return
	}

	page, err := h.svc.Catalog(ctx.Request.Context(), f)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

// GET /me/designs?status=draft
func (h *DesignsHandler) Mine(ctx *gin.Context) {
	f, ok := designFilter(ctx)
	if !ok {
		return
	}
	if s := optionalQuery(ctx, "status"); s != nil {
		st := design.Status(*s)
		if !st.IsValid() {
			RespondBadRequest(ctx, "Unknown design status.", map[string]string{"status": *s})
			return
		}
		f.Status = &st
	}

	page, err := h.svc.Mine(ctx.Request.Context(), f)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}

func designFilter(ctx *gin.Context) (design.ListDesignsFilter, bool) {
	limit, offset := pageParams(ctx)
	f := design.ListDesignsFilter{
		Category: optionalQuery(ctx, "category"),
		Query:    optionalQuery(ctx, "q"),
		Limit:    limit,
		Offset:   offset,
	}

	var ok bool
	if f.MinPrice, ok = optionalInt64(ctx, "minPrice"); !ok {
		RespondBadRequest(ctx, "minPrice must be a whole number of cents.", nil)
		return f, false
	}
	if f.MaxPrice, ok = optionalInt64(ctx, "maxPrice"); !ok {
		RespondBadRequest(ctx, "maxPrice must be a whole number of cents.", nil)
		return f, false
	}
	return f, true
}
