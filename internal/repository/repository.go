package repository

import (
	"context"

	"github.com/utafrali/catalog/internal/domain"
)

// ProductRepository persists product rows. Children are loaded through their
// own repositories.
type ProductRepository interface {
	// Create inserts a product and sets its generated id.
	Create(ctx context.Context, p *domain.Product) error

	// GetByID returns the product scalars and its category name. The child
	// collections are left empty.
	GetByID(ctx context.Context, id int64) (*domain.ProductDetail, error)

	// GetForUpdate loads the product row and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Product, error)

	// List returns every product ordered by id.
	List(ctx context.Context) ([]domain.ProductDetail, error)

	// ListByCategory returns products whose primary category is categoryID or
	// that link it as a sub-category.
	ListByCategory(ctx context.Context, categoryID int64) ([]domain.ProductDetail, error)

	// Update overwrites the product scalars.
	Update(ctx context.Context, p *domain.Product) error

	// Delete removes a product. Its children and links cascade.
	Delete(ctx context.Context, id int64) error
}

// CategoryRepository persists the category tree.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id int64) (*domain.Category, error)

	// FindByName returns the lowest-id category with exactly that name.
	FindByName(ctx context.Context, name string) (*domain.Category, error)

	// ListWithParent returns every category with its immediate parent.
	ListWithParent(ctx context.Context) ([]domain.CategoryWithParent, error)
	ListRoots(ctx context.Context) ([]domain.Category, error)
	ListChildren(ctx context.Context, parentID int64) ([]domain.Category, error)

	// LockTree serializes category moves until the surrounding transaction
	// ends, so two moves cannot each pass the cycle check and together form a
	// loop.
	LockTree(ctx context.Context) error

	// Ancestors returns the ids on the path from id up to its root, id included.
	Ancestors(ctx context.Context, id int64) ([]int64, error)

	// IsReferenced reports whether a product or child category points at id.
	IsReferenced(ctx context.Context, id int64) (bool, error)

	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id int64) error
}

// VariantRepository persists product variants.
type VariantRepository interface {
	// ListByProducts returns the variants of every given product keyed by
	// product id, ordered by id.
	ListByProducts(ctx context.Context, productIDs []int64) (map[int64][]domain.Variant, error)
	Create(ctx context.Context, v *domain.Variant) error
	Update(ctx context.Context, v *domain.Variant) error
	DeleteByIDs(ctx context.Context, productID int64, ids []int64) error
}

// ImageRepository persists product images.
type ImageRepository interface {
	// ListByProducts returns the images of every given product keyed by
	// product id, ordered by sort order then id.
	ListByProducts(ctx context.Context, productIDs []int64) (map[int64][]domain.Image, error)

	// GetByID returns the image only when it belongs to productID.
	GetByID(ctx context.Context, productID, imageID int64) (*domain.Image, error)
	Create(ctx context.Context, img *domain.Image) error
	Update(ctx context.Context, img *domain.Image) error
	DeleteByIDs(ctx context.Context, productID int64, ids []int64) error
}

// SizeRepository persists the shared size catalog.
type SizeRepository interface {
	Create(ctx context.Context, s *domain.ProductSize) error
	GetByID(ctx context.Context, id int64) (*domain.ProductSize, error)
	List(ctx context.Context) ([]domain.ProductSize, error)
	Update(ctx context.Context, s *domain.ProductSize) error
	Delete(ctx context.Context, id int64) error

	// Missing returns the ids from ids that have no size row.
	Missing(ctx context.Context, ids []int64) ([]int64, error)
}

// LinkRepository persists the product to size and product to sub-category
// junction tables.
type LinkRepository interface {
	AddSizes(ctx context.Context, productID int64, sizeIDs []int64) error
	RemoveSizes(ctx context.Context, productID int64, sizeIDs []int64) error
	AddSubCategories(ctx context.Context, productID int64, categoryIDs []int64) error
	RemoveSubCategories(ctx context.Context, productID int64, categoryIDs []int64) error

	SizesByProducts(ctx context.Context, productIDs []int64) (map[int64][]domain.ProductSize, error)
	SubCategoriesByProducts(ctx context.Context, productIDs []int64) (map[int64][]domain.CategoryRef, error)
}

// Repositories groups the repositories bound to one connection or
// transaction.
type Repositories struct {
	Products   ProductRepository
	Categories CategoryRepository
	Variants   VariantRepository
	Images     ImageRepository
	Sizes      SizeRepository
	Links      LinkRepository
}

// TxRunner runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(repos Repositories) error) error
}

// Store is the persistence entry point handed to services: plain
// repositories for reads and a TxRunner for writes.
type Store interface {
	TxRunner
	Repositories() Repositories
}
