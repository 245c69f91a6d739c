//go:build integration

package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests drive a running catalog-service. Start it (with Postgres) and run:
//
//	CATALOG_BASE_URL=http://localhost:8080 go test -tags integration ./internal/app/...

type flowClient struct {
	t       *testing.T
	baseURL string
	http    *http.Client
}

func newFlowClient(t *testing.T) *flowClient {
	t.Helper()
	base := os.Getenv("CATALOG_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	c := &flowClient{t: t, baseURL: base, http: &http.Client{Timeout: 10 * time.Second}}

	resp, err := c.http.Get(base + "/health/ready")
	if err != nil {
		t.Skipf("catalog-service at %s not reachable: %v", base, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Skipf("catalog-service at %s not ready: %d", base, resp.StatusCode)
	}
	return c
}

type flowResponse struct {
	status   int
	location string
	data     json.RawMessage
	errCode  string
}

func (c *flowClient) do(method, path string, body any) flowResponse {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	require.NoError(c.t, err, "%s %s", method, path)
	defer func() { _ = resp.Body.Close() }()

	out := flowResponse{status: resp.StatusCode, location: resp.Header.Get("Location")}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) == 0 {
		return out
	}
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(c.t, json.Unmarshal(raw, &env), string(raw))
	out.data = env.Data
	if env.Error != nil {
		out.errCode = env.Error.Code
	}
	return out
}

func (r flowResponse) into(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.data, v))
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

type flowProduct struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	MainImageURL string `json:"main_image_url"`
	CategoryName string `json:"category_name"`
	Variants     []struct {
		ID          int64  `json:"id"`
		Size        string `json:"size"`
		Color       string `json:"color"`
		Stock       int    `json:"stock"`
		DisplayName string `json:"display_name"`
	} `json:"variants"`
	Images []struct {
		ID  int64  `json:"id"`
		URL string `json:"url"`
	} `json:"images"`
	Sizes []struct {
		ID       int64  `json:"id"`
		SizeName string `json:"size_name"`
	} `json:"sizes"`
	SubCategories []struct {
		Name string `json:"name"`
	} `json:"sub_categories"`
}

func TestProductLifecycle(t *testing.T) {
	c := newFlowClient(t)

	rootName := uniqueName("flow-root")
	res := c.do(http.MethodPost, "/categories", map[string]any{"name": rootName})
	require.Equal(t, http.StatusCreated, res.status, res.errCode)
	var root struct {
		ID int64 `json:"id"`
	}
	res.into(t, &root)

	subName := uniqueName("flow-sub")
	res = c.do(http.MethodPost, "/categories", map[string]any{"name": subName, "parent_id": root.ID})
	require.Equal(t, http.StatusCreated, res.status, res.errCode)
	var sub struct {
		ID int64 `json:"id"`
	}
	res.into(t, &sub)

	sizeName := uniqueName("sz")[:20]
	res = c.do(http.MethodPost, "/product-sizes", map[string]any{"size_name": sizeName})
	require.Equal(t, http.StatusCreated, res.status, res.errCode)
	var size struct {
		ID int64 `json:"id"`
	}
	res.into(t, &size)

	res = c.do(http.MethodPost, "/products", map[string]any{
		"name":               "Flow Tee",
		"price":              "24.50",
		"category_name":      rootName,
		"sub_category_names": []string{subName},
		"size_ids":           []int64{size.ID},
		"variants": []map[string]any{
			{"size": "M", "color": "Red", "stock": 3},
			{"size": "L", "color": "Red", "stock": 1},
		},
		"images": []map[string]any{
			{"url": "https://cdn.example.com/flow/front.jpg", "sort_order": 0},
		},
	})
	require.Equal(t, http.StatusCreated, res.status, res.errCode)
	var created flowProduct
	res.into(t, &created)
	require.NotZero(t, created.ID)
	assert.Equal(t, fmt.Sprintf("/products/%d", created.ID), res.location)
	require.Len(t, created.Variants, 2)
	assert.Equal(t, rootName, created.CategoryName)
	require.Len(t, created.SubCategories, 1)
	assert.Equal(t, subName, created.SubCategories[0].Name)

	productPath := fmt.Sprintf("/products/%d", created.ID)

	// Merge keeps the untouched variant and appends the new one.
	keep := created.Variants[0]
	res = c.do(http.MethodPut, productPath, map[string]any{
		"variants": []map[string]any{
			{"id": keep.ID, "size": keep.Size, "color": keep.Color, "stock": 10},
			{"size": "XL", "color": "Red", "stock": 2},
		},
		"images": []map[string]any{},
	})
	require.Equal(t, http.StatusNoContent, res.status, res.errCode)

	res = c.do(http.MethodGet, productPath, nil)
	require.Equal(t, http.StatusOK, res.status)
	var updated flowProduct
	res.into(t, &updated)
	assert.Len(t, updated.Variants, 3)
	assert.Empty(t, updated.Images)
	for _, v := range updated.Variants {
		if v.ID == keep.ID {
			assert.Equal(t, 10, v.Stock)
		}
	}

	res = c.do(http.MethodPut, productPath, map[string]any{
		"variants": []map[string]any{{"id": keep.ID}, {"id": keep.ID}},
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "DUPLICATE_CHILD_IDENTIFIER", res.errCode)

	res = c.do(http.MethodPut, productPath, map[string]any{"category_name": uniqueName("missing")})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "INVALID_REFERENCE", res.errCode)

	res = c.do(http.MethodPost, productPath+"/images", map[string]any{"url": "https://cdn.example.com/flow/back.jpg"})
	require.Equal(t, http.StatusCreated, res.status, res.errCode)
	imagePath := res.location
	require.NotEmpty(t, imagePath)

	res = c.do(http.MethodDelete, fmt.Sprintf("/categories/%d", root.ID), nil)
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, "CATEGORY_IN_USE", res.errCode)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, imagePath, nil).status)
	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, productPath, nil).status)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, productPath, nil).status)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, fmt.Sprintf("/product-sizes/%d", size.ID), nil).status)
	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, fmt.Sprintf("/categories/%d", sub.ID), nil).status)
	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, fmt.Sprintf("/categories/%d", root.ID), nil).status)
}
