package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/pkg/database"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// productColumns is the standard SELECT column list for products, qualified
// with the p alias.
const productColumns = `p.id, p.name, p.price, p.description, p.main_image_url, p.category_id,
	p.shipping_price, p.meta_title, p.meta_description, p.is_active, p.is_featured,
	p.created_at, p.updated_at`

// ProductRepository implements product persistence using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a product and stores the generated id on p.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO products (name, price, description, main_image_url, category_id,
			shipping_price, meta_title, meta_description, is_active, is_featured,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		p.Name,
		p.Price,
		p.Description,
		p.MainImageURL,
		p.CategoryID,
		p.ShippingPrice,
		p.MetaTitle,
		p.MetaDescription,
		p.IsActive,
		p.IsFeatured,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.InvalidReference("category", strconv.FormatInt(p.CategoryID, 10))
		}
		if rangeErr := outOfRange(err, "product"); rangeErr != nil {
			return rangeErr
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID returns the product scalars joined with the category name.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	query := fmt.Sprintf(`
		SELECT %s, c.name
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, productColumns)

	var d domain.ProductDetail
	if err := scanProductDetail(r.db.QueryRow(ctx, query, id), &d); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &d, nil
}

// GetForUpdate loads the product row with a row lock held until the
// surrounding transaction ends.
func (r *ProductRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p WHERE p.id = $1 FOR UPDATE`, productColumns)

	var p domain.Product
	if err := scanProduct(r.db.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}
	return &p, nil
}

// List returns every product ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]domain.ProductDetail, error) {
	query := fmt.Sprintf(`
		SELECT %s, c.name
		FROM products p
		JOIN categories c ON c.id = p.category_id
		ORDER BY p.id`, productColumns)

	return r.queryDetails(ctx, "list products", query)
}

// ListByCategory returns products filed under categoryID either as their
// primary category or through a sub-category link.
func (r *ProductRepository) ListByCategory(ctx context.Context, categoryID int64) ([]domain.ProductDetail, error) {
	query := fmt.Sprintf(`
		SELECT %s, c.name
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.category_id = $1
		   OR EXISTS (
			SELECT 1 FROM product_sub_categories psc
			WHERE psc.product_id = p.id AND psc.category_id = $1)
		ORDER BY p.id`, productColumns)

	return r.queryDetails(ctx, "list products by category", query, categoryID)
}

// Update overwrites the product scalars.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, price = $2, description = $3, main_image_url = $4, category_id = $5,
		    shipping_price = $6, meta_title = $7, meta_description = $8, is_active = $9,
		    is_featured = $10, updated_at = $11
		WHERE id = $12`

	ct, err := r.db.Exec(ctx, query,
		p.Name,
		p.Price,
		p.Description,
		p.MainImageURL,
		p.CategoryID,
		p.ShippingPrice,
		p.MetaTitle,
		p.MetaDescription,
		p.IsActive,
		p.IsFeatured,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.InvalidReference("category", strconv.FormatInt(p.CategoryID, 10))
		}
		if rangeErr := outOfRange(err, "product"); rangeErr != nil {
			return rangeErr
		}
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product by id.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

func (r *ProductRepository) queryDetails(ctx context.Context, what, query string, args ...any) ([]domain.ProductDetail, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	products := []domain.ProductDetail{}
	for rows.Next() {
		var d domain.ProductDetail
		if err := scanProductDetail(rows, &d); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func productDest(p *domain.Product) []any {
	return []any{
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.MainImageURL,
		&p.CategoryID,
		&p.ShippingPrice,
		&p.MetaTitle,
		&p.MetaDescription,
		&p.IsActive,
		&p.IsFeatured,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func scanProduct(row pgx.Row, p *domain.Product) error {
	return row.Scan(productDest(p)...)
}

func scanProductDetail(row pgx.Row, d *domain.ProductDetail) error {
	return row.Scan(append(productDest(&d.Product), &d.CategoryName)...)
}
