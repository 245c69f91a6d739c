package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the root of the catalog aggregate. Variants, images, size links
// and sub-category links belong to it and change only through it.
type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Description     string          `json:"description"`
	MainImageURL    string          `json:"main_image_url"`
	CategoryID      int64           `json:"category_id"`
	ShippingPrice   decimal.Decimal `json:"shipping_price"`
	MetaTitle       string          `json:"meta_title"`
	MetaDescription string          `json:"meta_description"`
	IsActive        bool            `json:"is_active"`
	IsFeatured      bool            `json:"is_featured"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Variant is a purchasable size and color combination of a product.
type Variant struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Stock     int    `json:"stock"`
}

// DisplayName is "<size> <color>", dropping whichever part is empty.
func (v Variant) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(v.Size) + " " + strings.TrimSpace(v.Color))
}

// ChildID returns the variant id; zero means not yet persisted.
func (v Variant) ChildID() int64 { return v.ID }

// Equal reports whether v and o carry the same editable content.
func (v Variant) Equal(o Variant) bool {
	return v.Size == o.Size && v.Color == o.Color && v.Stock == o.Stock
}

// Image is a product picture. Images list by SortOrder, then ID.
type Image struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	URL       string `json:"url"`
	AltText   string `json:"alt_text"`
	SortOrder int    `json:"sort_order"`
}

// ChildID returns the image id; zero means not yet persisted.
func (i Image) ChildID() int64 { return i.ID }

// Equal reports whether i and o carry the same editable content.
func (i Image) Equal(o Image) bool {
	return i.URL == o.URL && i.AltText == o.AltText && i.SortOrder == o.SortOrder
}

// ProductSize is an entry of the shared size catalog.
type ProductSize struct {
	ID       int64  `json:"id"`
	SizeName string `json:"size_name"`
}

// CategoryRef names a category without its other fields.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductDetail is a fully materialized product aggregate.
type ProductDetail struct {
	Product
	CategoryName  string        `json:"category_name"`
	Variants      []Variant     `json:"variants"`
	Images        []Image       `json:"images"`
	Sizes         []ProductSize `json:"sizes"`
	SubCategories []CategoryRef `json:"sub_categories"`
}

// CreateProductInput holds everything needed to create a product and its
// children in one write. The category is referenced by name.
type CreateProductInput struct {
	Name             string
	Price            decimal.Decimal
	Description      string
	MainImageURL     string
	CategoryName     string
	ShippingPrice    decimal.Decimal
	MetaTitle        string
	MetaDescription  string
	IsActive         bool
	IsFeatured       bool
	Variants         []Variant
	Images           []Image
	SizeIDs          []int64
	SubCategoryNames []string
}

// UpdateProductInput is a partial update. A nil field is left unchanged.
// A nil collection leaves those children untouched; a non-nil empty one
// removes them all.
type UpdateProductInput struct {
	// ID is the id carried in the body, zero when absent.
	ID               int64
	Name             *string
	Price            *decimal.Decimal
	Description      *string
	MainImageURL     *string
	CategoryName     *string
	ShippingPrice    *decimal.Decimal
	MetaTitle        *string
	MetaDescription  *string
	IsActive         *bool
	IsFeatured       *bool
	Variants         *[]Variant
	Images           *[]Image
	SizeIDs          *[]int64
	SubCategoryNames *[]string
}

// Apply copies the non-nil scalar fields of in onto p.
func (in UpdateProductInput) Apply(p *Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.MainImageURL != nil {
		p.MainImageURL = *in.MainImageURL
	}
	if in.ShippingPrice != nil {
		p.ShippingPrice = *in.ShippingPrice
	}
	if in.MetaTitle != nil {
		p.MetaTitle = *in.MetaTitle
	}
	if in.MetaDescription != nil {
		p.MetaDescription = *in.MetaDescription
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
}
