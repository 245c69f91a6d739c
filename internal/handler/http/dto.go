package http

import (
	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog/internal/domain"
)

// --- Request DTOs ---

// VariantRequest is one variant inside a product body. A zero id marks a new row.
type VariantRequest struct {
	ID    int64  `json:"id" validate:"gte=0"`
	Size  string `json:"size" validate:"max=50"`
	Color string `json:"color" validate:"max=50"`
	Stock int    `json:"stock" validate:"gte=0,lte=2147483647"`
}

// ImageRequest is one image inside a product body or the image endpoints.
type ImageRequest struct {
	ID        int64  `json:"id" validate:"gte=0"`
	URL       string `json:"url" validate:"required,url,max=2048"`
	AltText   string `json:"alt_text" validate:"max=255"`
	SortOrder int    `json:"sort_order" validate:"gte=0,lte=2147483647"`
}

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name             string           `json:"name" validate:"required,min=1,max=255"`
	Price            decimal.Decimal  `json:"price" validate:"gte=0,money"`
	Description      string           `json:"description" validate:"max=5000"`
	MainImageURL     string           `json:"main_image_url" validate:"omitempty,url,max=2048"`
	CategoryName     string           `json:"category_name" validate:"required,max=100"`
	ShippingPrice    decimal.Decimal  `json:"shipping_price" validate:"gte=0,money"`
	MetaTitle        string           `json:"meta_title" validate:"max=255"`
	MetaDescription  string           `json:"meta_description" validate:"max=500"`
	IsActive         *bool            `json:"is_active"`
	IsFeatured       bool             `json:"is_featured"`
	Variants         []VariantRequest `json:"variants" validate:"omitempty,dive"`
	Images           []ImageRequest   `json:"images" validate:"omitempty,dive"`
	SizeIDs          []int64          `json:"size_ids" validate:"omitempty,dive,gt=0"`
	SubCategoryNames []string         `json:"sub_category_names" validate:"omitempty,dive,required,max=100"`
}

// UpdateProductRequest is the JSON request body for updating a product.
// Absent fields are left unchanged. An absent collection keeps its rows; an
// empty one removes them.
type UpdateProductRequest struct {
	ID               int64             `json:"id" validate:"gte=0"`
	Name             *string           `json:"name" validate:"omitempty,min=1,max=255"`
	Price            *decimal.Decimal  `json:"price" validate:"omitempty,gte=0,money"`
	Description      *string           `json:"description" validate:"omitempty,max=5000"`
	MainImageURL     *string           `json:"main_image_url" validate:"omitempty,url,max=2048"`
	CategoryName     *string           `json:"category_name" validate:"omitempty,min=1,max=100"`
	ShippingPrice    *decimal.Decimal  `json:"shipping_price" validate:"omitempty,gte=0,money"`
	MetaTitle        *string           `json:"meta_title" validate:"omitempty,max=255"`
	MetaDescription  *string           `json:"meta_description" validate:"omitempty,max=500"`
	IsActive         *bool             `json:"is_active"`
	IsFeatured       *bool             `json:"is_featured"`
	Variants         *[]VariantRequest `json:"variants" validate:"omitempty,dive"`
	Images           *[]ImageRequest   `json:"images" validate:"omitempty,dive"`
	SizeIDs          *[]int64          `json:"size_ids" validate:"omitempty,dive,gt=0"`
	SubCategoryNames *[]string         `json:"sub_category_names" validate:"omitempty,dive,required,max=100"`
}

// CategoryRequest is the body of category create and update. Updates replace
// every field.
type CategoryRequest struct {
	ID          int64  `json:"id" validate:"gte=0"`
	Name        string `json:"name" validate:"required,min=1,max=100"`
	ParentID    *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Description string `json:"description" validate:"max=1000"`
	SortOrder   int    `json:"sort_order" validate:"gte=0,lte=2147483647"`
}

// SizeRequest is the body of size create and update.
type SizeRequest struct {
	ID       int64  `json:"id" validate:"gte=0"`
	SizeName string `json:"size_name" validate:"required,max=50"`
}

func (r *CreateProductRequest) toInput() *domain.CreateProductInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &domain.CreateProductInput{
		Name:             r.Name,
		Price:            r.Price,
		Description:      r.Description,
		MainImageURL:     r.MainImageURL,
		CategoryName:     r.CategoryName,
		ShippingPrice:    r.ShippingPrice,
		MetaTitle:        r.MetaTitle,
		MetaDescription:  r.MetaDescription,
		IsActive:         active,
		IsFeatured:       r.IsFeatured,
		Variants:         toVariants(r.Variants),
		Images:           toImages(r.Images),
		SizeIDs:          r.SizeIDs,
		SubCategoryNames: r.SubCategoryNames,
	}
}

func (r *UpdateProductRequest) toInput() *domain.UpdateProductInput {
	in := &domain.UpdateProductInput{
		ID:               r.ID,
		Name:             r.Name,
		Price:            r.Price,
		Description:      r.Description,
		MainImageURL:     r.MainImageURL,
		CategoryName:     r.CategoryName,
		ShippingPrice:    r.ShippingPrice,
		MetaTitle:        r.MetaTitle,
		MetaDescription:  r.MetaDescription,
		IsActive:         r.IsActive,
		IsFeatured:       r.IsFeatured,
		SizeIDs:          r.SizeIDs,
		SubCategoryNames: r.SubCategoryNames,
	}
	if r.Variants != nil {
		variants := toVariants(*r.Variants)
		in.Variants = &variants
	}
	if r.Images != nil {
		images := toImages(*r.Images)
		in.Images = &images
	}
	return in
}

// toVariants keeps a non-nil empty input non-nil, since empty means delete all.
func toVariants(reqs []VariantRequest) []domain.Variant {
	if reqs == nil {
		return nil
	}
	out := make([]domain.Variant, len(reqs))
	for i, v := range reqs {
		out[i] = domain.Variant{ID: v.ID, Size: v.Size, Color: v.Color, Stock: v.Stock}
	}
	return out
}

func toImages(reqs []ImageRequest) []domain.Image {
	if reqs == nil {
		return nil
	}
	out := make([]domain.Image, len(reqs))
	for i, img := range reqs {
		out[i] = img.toDomain()
	}
	return out
}

func (r ImageRequest) toDomain() domain.Image {
	return domain.Image{ID: r.ID, URL: r.URL, AltText: r.AltText, SortOrder: r.SortOrder}
}

func (r CategoryRequest) toInput() domain.CategoryInput {
	return domain.CategoryInput{
		ID:          r.ID,
		Name:        r.Name,
		ParentID:    r.ParentID,
		Description: r.Description,
		SortOrder:   r.SortOrder,
	}
}

// --- Response DTOs ---

// VariantResponse adds the derived display name to a variant.
type VariantResponse struct {
	domain.Variant
	DisplayName string `json:"display_name"`
}

// ProductResponse is the wire form of a materialized product.
type ProductResponse struct {
	domain.ProductDetail
	Variants []VariantResponse `json:"variants"`
}

func newVariantResponses(variants []domain.Variant) []VariantResponse {
	out := make([]VariantResponse, len(variants))
	for i, v := range variants {
		out[i] = VariantResponse{Variant: v, DisplayName: v.DisplayName()}
	}
	return out
}

func newProductResponse(d *domain.ProductDetail) ProductResponse {
	return ProductResponse{ProductDetail: *d, Variants: newVariantResponses(d.Variants)}
}

func newProductResponses(details []domain.ProductDetail) []ProductResponse {
	out := make([]ProductResponse, len(details))
	for i := range details {
		out[i] = newProductResponse(&details[i])
	}
	return out
}
