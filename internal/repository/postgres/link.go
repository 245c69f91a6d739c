package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/pkg/database"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// LinkRepository maintains the product_product_sizes and
// product_sub_categories junction tables.
type LinkRepository struct {
	db database.DBTX
}

// NewLinkRepository creates a new PostgreSQL-backed link repository.
func NewLinkRepository(db database.DBTX) *LinkRepository {
	return &LinkRepository{db: db}
}

// AddSizes links productID to every size in sizeIDs. Existing links are kept.
func (r *LinkRepository) AddSizes(ctx context.Context, productID int64, sizeIDs []int64) error {
	if len(sizeIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO product_product_sizes (product_id, size_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`

	if _, err := r.db.Exec(ctx, query, productID, sizeIDs); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.InvalidReference("product size", fmt.Sprint(sizeIDs))
		}
		return fmt.Errorf("link sizes: %w", err)
	}
	return nil
}

// RemoveSizes unlinks the given sizes from productID.
func (r *LinkRepository) RemoveSizes(ctx context.Context, productID int64, sizeIDs []int64) error {
	if len(sizeIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM product_product_sizes WHERE product_id = $1 AND size_id = ANY($2)`,
		productID, sizeIDs,
	)
	if err != nil {
		return fmt.Errorf("unlink sizes: %w", err)
	}
	return nil
}

// AddSubCategories links productID to every category in categoryIDs.
func (r *LinkRepository) AddSubCategories(ctx context.Context, productID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO product_sub_categories (product_id, category_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`

	if _, err := r.db.Exec(ctx, query, productID, categoryIDs); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.InvalidReference("category", fmt.Sprint(categoryIDs))
		}
		return fmt.Errorf("link sub-categories: %w", err)
	}
	return nil
}

// RemoveSubCategories unlinks the given categories from productID.
func (r *LinkRepository) RemoveSubCategories(ctx context.Context, productID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM product_sub_categories WHERE product_id = $1 AND category_id = ANY($2)`,
		productID, categoryIDs,
	)
	if err != nil {
		return fmt.Errorf("unlink sub-categories: %w", err)
	}
	return nil
}

// SizesByProducts returns the linked sizes of every given product, ordered
// by size id.
func (r *LinkRepository) SizesByProducts(ctx context.Context, productIDs []int64) (map[int64][]domain.ProductSize, error) {
	out := make(map[int64][]domain.ProductSize, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT pps.product_id, s.id, s.size_name
		FROM product_product_sizes pps
		JOIN product_sizes s ON s.id = pps.size_id
		WHERE pps.product_id = ANY($1)
		ORDER BY pps.product_id, s.id`

	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list product sizes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			s         domain.ProductSize
		)
		if err := rows.Scan(&productID, &s.ID, &s.SizeName); err != nil {
			return nil, fmt.Errorf("scan product size link: %w", err)
		}
		out[productID] = append(out[productID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product size links: %w", err)
	}
	return out, nil
}

// SubCategoriesByProducts returns the linked sub-categories of every given
// product, ordered by category id.
func (r *LinkRepository) SubCategoriesByProducts(ctx context.Context, productIDs []int64) (map[int64][]domain.CategoryRef, error) {
	out := make(map[int64][]domain.CategoryRef, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT psc.product_id, c.id, c.name
		FROM product_sub_categories psc
		JOIN categories c ON c.id = psc.category_id
		WHERE psc.product_id = ANY($1)
		ORDER BY psc.product_id, c.id`

	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list product sub-categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			ref       domain.CategoryRef
		)
		if err := rows.Scan(&productID, &ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan sub-category link: %w", err)
		}
		out[productID] = append(out[productID], ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sub-category links: %w", err)
	}
	return out, nil
}
