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

// CategoryService is the category tree as seen by the HTTP layer.
type CategoryService interface {
	Get(ctx context.Context, id int64) (*domain.Category, error)
	ListWithParent(ctx context.Context) ([]domain.CategoryWithParent, error)
	ListRoots(ctx context.Context) ([]domain.Category, error)
	ListChildren(ctx context.Context, parentID int64) ([]domain.Category, error)
	ListProducts(ctx context.Context, categoryID int64) ([]domain.ProductDetail, error)
	Create(ctx context.Context, in domain.CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id int64, in domain.CategoryInput) error
	Delete(ctx context.Context, id int64) error
}

// CategoryHandler handles HTTP requests for category endpoints.
type CategoryHandler struct {
	service CategoryService
	logger  *slog.Logger
}

// NewCategoryHandler creates a new category HTTP handler.
func NewCategoryHandler(svc CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: svc,
		logger:  logger,
	}
}

// ListCategories handles GET /categories and GET /categories/hierarchy.
// Each category carries its immediate parent's id and name.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListWithParent(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, categories)
}

// ListRoots handles GET /categories/root
func (h *CategoryHandler) ListRoots(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListRoots(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, categories)
}

// ListSubcategories handles GET /categories/subcategories/{parentId}
func (h *CategoryHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	parentID, ok := httputil.ParseID(w, r, "parent id", chi.URLParam(r, "parentId"))
	if !ok {
		return
	}

	categories, err := h.service.ListChildren(r.Context(), parentID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, categories)
}

// ListProducts handles GET /categories/products/{categoryId}
func (h *CategoryHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := httputil.ParseID(w, r, "category id", chi.URLParam(r, "categoryId"))
	if !ok {
		return
	}

	products, err := h.service.ListProducts(r.Context(), categoryID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, newProductResponses(products))
}

// GetCategory handles GET /categories/{id}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "category id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	category, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, category)
}

// CreateCategory handles POST /categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var req CategoryRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	category, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteCreated(w, fmt.Sprintf("/categories/%d", category.ID), category)
}

// UpdateCategory handles PUT /categories/{id}. The body replaces every
// writable field, so an absent parent_id moves the category to the root.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "category id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var req CategoryRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if err := h.service.Update(r.Context(), id, req.toInput()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}

// DeleteCategory handles DELETE /categories/{id}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "category id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}
