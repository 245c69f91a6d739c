package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog/internal/domain"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

func TestListImages(t *testing.T) {
	ts := newTestServer(t)
	ts.products.On("ListImages", mock.Anything, int64(5)).Return([]domain.Image{
		{ID: 1, ProductID: 5, URL: "https://cdn.example.com/a.jpg", SortOrder: 0},
		{ID: 2, ProductID: 5, URL: "https://cdn.example.com/b.jpg", SortOrder: 1},
	}, nil)

	rec := ts.do(http.MethodGet, "/products/5/images", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []domain.Image `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
}

func TestGetImage(t *testing.T) {
	ts := newTestServer(t)
	ts.products.On("GetImage", mock.Anything, int64(5), int64(1)).
		Return(&domain.Image{ID: 1, ProductID: 5, URL: "https://cdn.example.com/a.jpg"}, nil)
	ts.products.On("GetImage", mock.Anything, int64(5), int64(9)).
		Return(nil, apperrors.NotFound("image", int64(9)))

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/products/5/images/1", "").Code)

	rec := ts.do(http.MethodGet, "/products/5/images/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/products/5/images/zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errorCode(t, rec))
}

func TestAddImage(t *testing.T) {
	ts := newTestServer(t)
	want := domain.Image{URL: "https://cdn.example.com/c.jpg", AltText: "side", SortOrder: 2}
	ts.products.On("AddImage", mock.Anything, int64(5), want).
		Return(&domain.Image{ID: 12, ProductID: 5, URL: want.URL, AltText: want.AltText, SortOrder: 2}, nil)

	rec := ts.do(http.MethodPost, "/products/5/images", `{"url":"https://cdn.example.com/c.jpg","alt_text":"side","sort_order":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/products/5/images/12", rec.Header().Get("Location"))
}

func TestAddImage_RequiresURL(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/products/5/images", `{"alt_text":"side"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Fields, "url")
}

func TestUpdateImage(t *testing.T) {
	ts := newTestServer(t)
	ts.products.On("UpdateImage", mock.Anything, int64(5), int64(1), mock.MatchedBy(func(img domain.Image) bool {
		return img.ID == 0 && img.AltText == "front"
	})).Return(nil)
	ts.products.On("UpdateImage", mock.Anything, int64(5), int64(1), mock.MatchedBy(func(img domain.Image) bool {
		return img.ID == 2
	})).Return(apperrors.IDMismatch(1, 2))

	rec := ts.do(http.MethodPut, "/products/5/images/1", `{"url":"https://cdn.example.com/a.jpg","alt_text":"front"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPut, "/products/5/images/1", `{"id":2,"url":"https://cdn.example.com/a.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ID_MISMATCH", errorCode(t, rec))
}

func TestRemoveImage(t *testing.T) {
	ts := newTestServer(t)
	ts.products.On("RemoveImage", mock.Anything, int64(5), int64(1)).Return(nil)
	ts.products.On("RemoveImage", mock.Anything, int64(6), int64(1)).Return(apperrors.NotFound("image", int64(1)))
	ts.products.On("RemoveImage", mock.Anything, int64(7), int64(1)).Return(apperrors.Conflict("product 7 is being modified"))

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/products/5/images/1", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/products/6/images/1", "").Code)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodDelete, "/products/7/images/1", "").Code)
}
