package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/printhub/internal/domain/product"
	"github.com/geocoder89/printhub/internal/service"
	"github.com/gin-gonic/gin"
)

type ProductService interface {
	Create(ctx context.Context, req product.CreateProductRequest) (product.Product, error)
	Get(ctx context.Context, id string) (product.Product, error)
	Update(ctx context.Context, id string, req product.UpdateProductRequest) (product.Product, error)
	Delete(ctx context.Context, id string) error
	Mine(ctx context.Context, f product.ListProductsFilter) (service.Page[product.Product], error)
	Listing(ctx context.Context, designID string, limit, offset int) (service.Page[product.Product], error)
}

type ProductsHandler struct {
	svc ProductService
}

func NewProductsHandler(svc ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

func (h *ProductsHandler) Create(ctx *gin.Context) {
	var req product.CreateProductRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.svc.Create(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Header("Location", "/products/"+p.ID)
	ctx.JSON(http.StatusCreated, p)
}

func (h *ProductsHandler) Get(ctx *gin.Context) {
	p, err := h.svc.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

func (h *ProductsHandler) Update(ctx *gin.Context) {
	var req product.UpdateProductRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.svc.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

func (h *ProductsHandler) Delete(ctx *gin.Context) {
	if err := h.svc.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GET /me/products
func (h *ProductsHandler) Mine(ctx *gin.Context) {
	limit, offset := pageParams(ctx)

	page, err := h.svc.Mine(ctx.Request.Context(), product.ListProductsFilter{Limit: limit, Offset: offset})
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}

// GET /designs/:id/products
func (h *ProductsHandler) Listing(ctx *gin.Context) {
	limit, offset := pageParams(ctx)

	page, err := h.svc.Listing(ctx.Request.Context(), ctx.Param("id"), limit, offset)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, page)
}
