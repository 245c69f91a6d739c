package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/pkg/database"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// VariantRepository implements variant persistence using PostgreSQL.
type VariantRepository struct {
	db database.DBTX
}

// NewVariantRepository creates a new PostgreSQL-backed variant repository.
func NewVariantRepository(db database.DBTX) *VariantRepository {
	return &VariantRepository{db: db}
}

// ListByProducts loads the variants of all given products in one query.
func (r *VariantRepository) ListByProducts(ctx context.Context, productIDs []int64) (map[int64][]domain.Variant, error) {
	out := make(map[int64][]domain.Variant, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT id, product_id, size, color, stock
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY product_id, id`

	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Stock); err != nil {
			return nil, fmt.Errorf("scan variant row: %w", err)
		}
		out[v.ProductID] = append(out[v.ProductID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant rows: %w", err)
	}
	return out, nil
}

// Create inserts a variant and stores the generated id on v.
func (r *VariantRepository) Create(ctx context.Context, v *domain.Variant) error {
	query := `
		INSERT INTO product_variants (product_id, size, color, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if err := r.db.QueryRow(ctx, query, v.ProductID, v.Size, v.Color, v.Stock).Scan(&v.ID); err != nil {
		if rangeErr := outOfRange(err, "variant"); rangeErr != nil {
			return rangeErr
		}
		return fmt.Errorf("insert variant: %w", err)
	}
	return nil
}

// Update overwrites a variant of its product.
func (r *VariantRepository) Update(ctx context.Context, v *domain.Variant) error {
	query := `
		UPDATE product_variants
		SET size = $1, color = $2, stock = $3
		WHERE id = $4 AND product_id = $5`

	ct, err := r.db.Exec(ctx, query, v.Size, v.Color, v.Stock, v.ID, v.ProductID)
	if err != nil {
		if rangeErr := outOfRange(err, "variant"); rangeErr != nil {
			return rangeErr
		}
		return fmt.Errorf("update variant: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("variant", v.ID)
	}
	return nil
}

// DeleteByIDs removes the listed variants of productID.
func (r *VariantRepository) DeleteByIDs(ctx context.Context, productID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM product_variants WHERE product_id = $1 AND id = ANY($2)`,
		productID, ids,
	)
	if err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}
	return nil
}
