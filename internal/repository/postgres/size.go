package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/pkg/database"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// SizeRepository implements the size catalog using PostgreSQL.
type SizeRepository struct {
	db database.DBTX
}

// NewSizeRepository creates a new PostgreSQL-backed size repository.
func NewSizeRepository(db database.DBTX) *SizeRepository {
	return &SizeRepository{db: db}
}

// Create inserts a size and stores the generated id on s.
func (r *SizeRepository) Create(ctx context.Context, s *domain.ProductSize) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO product_sizes (size_name) VALUES ($1) RETURNING id`,
		s.SizeName,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product size", "size_name", s.SizeName)
		}
		return fmt.Errorf("insert product size: %w", err)
	}
	return nil
}

// GetByID retrieves a size by id.
func (r *SizeRepository) GetByID(ctx context.Context, id int64) (*domain.ProductSize, error) {
	var s domain.ProductSize
	err := r.db.QueryRow(ctx,
		`SELECT id, size_name FROM product_sizes WHERE id = $1`, id,
	).Scan(&s.ID, &s.SizeName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product size", id)
		}
		return nil, fmt.Errorf("get product size: %w", err)
	}
	return &s, nil
}

// List returns every size ordered by id.
func (r *SizeRepository) List(ctx context.Context) ([]domain.ProductSize, error) {
	rows, err := r.db.Query(ctx, `SELECT id, size_name FROM product_sizes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list product sizes: %w", err)
	}
	defer rows.Close()

	sizes := []domain.ProductSize{}
	for rows.Next() {
		var s domain.ProductSize
		if err := rows.Scan(&s.ID, &s.SizeName); err != nil {
			return nil, fmt.Errorf("scan product size row: %w", err)
		}
		sizes = append(sizes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product size rows: %w", err)
	}
	return sizes, nil
}

// Update renames a size.
func (r *SizeRepository) Update(ctx context.Context, s *domain.ProductSize) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE product_sizes SET size_name = $1 WHERE id = $2`,
		s.SizeName, s.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product size", "size_name", s.SizeName)
		}
		return fmt.Errorf("update product size: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product size", s.ID)
	}
	return nil
}

// Delete removes a size. Its product links cascade.
func (r *SizeRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM product_sizes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product size: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product size", id)
	}
	return nil
}

// Missing returns the ids in ids that do not exist, in input order.
func (r *SizeRepository) Missing(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id FROM product_sizes WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("check product sizes: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product size id: %w", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product size ids: %w", err)
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
