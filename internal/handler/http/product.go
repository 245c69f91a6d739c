package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/pkg/httputil"
	"github.com/utafrali/catalog/pkg/validator"
)

// ProductService is the product aggregate as seen by the HTTP layer.
type ProductService interface {
	Create(ctx context.Context, in *domain.CreateProductInput) (*domain.ProductDetail, error)
	Get(ctx context.Context, id int64) (*domain.ProductDetail, error)
	List(ctx context.Context) ([]domain.ProductDetail, error)
	ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error)
	Update(ctx context.Context, id int64, in *domain.UpdateProductInput) (*domain.ProductDetail, error)
	Delete(ctx context.Context, id int64) error

	ListImages(ctx context.Context, productID int64) ([]domain.Image, error)
	GetImage(ctx context.Context, productID, imageID int64) (*domain.Image, error)
	AddImage(ctx context.Context, productID int64, img domain.Image) (*domain.Image, error)
	UpdateImage(ctx context.Context, productID, imageID int64, img domain.Image) error
	RemoveImage(ctx context.Context, productID, imageID int64) error
}

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, newProductResponses(products))
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "product id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, newProductResponse(product))
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var req CreateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	product, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteCreated(w, fmt.Sprintf("/products/%d", product.ID), newProductResponse(product))
}

// UpdateProduct handles PUT /products/{id}. Only fields present in the body
// change; the response carries no body.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "product id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var req UpdateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if _, err := h.service.Update(r.Context(), id, req.toInput()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}

// DeleteProduct handles DELETE /products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "product id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}

// ListVariants handles GET /products/{id}/variants
func (h *ProductHandler) ListVariants(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "product id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	variants, err := h.service.ListVariants(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, newVariantResponses(variants))
}
