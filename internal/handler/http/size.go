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

// SizeService is the size catalog as seen by the HTTP layer.
type SizeService interface {
	Create(ctx context.Context, name string) (*domain.ProductSize, error)
	Get(ctx context.Context, id int64) (*domain.ProductSize, error)
	List(ctx context.Context) ([]domain.ProductSize, error)
	Update(ctx context.Context, id, bodyID int64, name string) error
	Delete(ctx context.Context, id int64) error
}

// SizeHandler handles HTTP requests for product size endpoints.
type SizeHandler struct {
	service SizeService
	logger  *slog.Logger
}

// NewSizeHandler creates a new size HTTP handler.
func NewSizeHandler(svc SizeService, logger *slog.Logger) *SizeHandler {
	return &SizeHandler{service: svc, logger: logger}
}

// ListSizes handles GET /product-sizes
func (h *SizeHandler) ListSizes(w http.ResponseWriter, r *http.Request) {
	sizes, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, sizes)
}

// GetSize handles GET /product-sizes/{id}
func (h *SizeHandler) GetSize(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "size id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	size, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, size)
}

// CreateSize handles POST /product-sizes
func (h *SizeHandler) CreateSize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var req SizeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	size, err := h.service.Create(r.Context(), req.SizeName)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteCreated(w, fmt.Sprintf("/product-sizes/%d", size.ID), size)
}

// UpdateSize handles PUT /product-sizes/{id}
func (h *SizeHandler) UpdateSize(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "size id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var req SizeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if err := h.service.Update(r.Context(), id, req.ID, req.SizeName); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}

// DeleteSize handles DELETE /product-sizes/{id}
func (h *SizeHandler) DeleteSize(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "size id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}
