package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog/pkg/httputil"
	"github.com/utafrali/catalog/pkg/validator"
)

// Image endpoints live on ProductHandler because every image write goes
// through the product aggregate.

// ListImages handles GET /products/{productId}/images
func (h *ProductHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, r, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	images, err := h.service.ListImages(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, images)
}

// GetImage handles GET /products/{productId}/images/{imageId}
func (h *ProductHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	productID, imageID, ok := parseImagePath(w, r)
	if !ok {
		return
	}

	img, err := h.service.GetImage(r.Context(), productID, imageID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, img)
}

// AddImage handles POST /products/{productId}/images
func (h *ProductHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, r, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var req ImageRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	img, err := h.service.AddImage(r.Context(), productID, req.toDomain())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteCreated(w, fmt.Sprintf("/products/%d/images/%d", productID, img.ID), img)
}

// UpdateImage handles PUT /products/{productId}/images/{imageId}
func (h *ProductHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	productID, imageID, ok := parseImagePath(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var req ImageRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if err := h.service.UpdateImage(r.Context(), productID, imageID, req.toDomain()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}

// RemoveImage handles DELETE /products/{productId}/images/{imageId}
func (h *ProductHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	productID, imageID, ok := parseImagePath(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveImage(r.Context(), productID, imageID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}

func parseImagePath(w http.ResponseWriter, r *http.Request) (productID, imageID int64, ok bool) {
	productID, ok = httputil.ParseID(w, r, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return 0, 0, false
	}
	imageID, ok = httputil.ParseID(w, r, "image id", chi.URLParam(r, "imageId"))
	return productID, imageID, ok
}
