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

const imageColumns = `id, product_id, url, alt_text, sort_order`

// ImageRepository implements image persistence using PostgreSQL.
type ImageRepository struct {
	db database.DBTX
}

// NewImageRepository creates a new PostgreSQL-backed image repository.
func NewImageRepository(db database.DBTX) *ImageRepository {
	return &ImageRepository{db: db}
}

// ListByProducts loads the images of all given products in one query.
func (r *ImageRepository) ListByProducts(ctx context.Context, productIDs []int64) (map[int64][]domain.Image, error) {
	out := make(map[int64][]domain.Image, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY product_id, sort_order, id`, imageColumns)

	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img domain.Image
		if err := scanImage(rows, &img); err != nil {
			return nil, fmt.Errorf("scan image row: %w", err)
		}
		out[img.ProductID] = append(out[img.ProductID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image rows: %w", err)
	}
	return out, nil
}

// GetByID returns an image of productID. An image of another product is
// reported as not found.
func (r *ImageRepository) GetByID(ctx context.Context, productID, imageID int64) (*domain.Image, error) {
	query := fmt.Sprintf(`SELECT %s FROM product_images WHERE id = $1 AND product_id = $2`, imageColumns)

	var img domain.Image
	if err := scanImage(r.db.QueryRow(ctx, query, imageID, productID), &img); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("image", imageID)
		}
		return nil, fmt.Errorf("get image: %w", err)
	}
	return &img, nil
}

// Create inserts an image and stores the generated id on img.
func (r *ImageRepository) Create(ctx context.Context, img *domain.Image) error {
	query := `
		INSERT INTO product_images (product_id, url, alt_text, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if err := r.db.QueryRow(ctx, query, img.ProductID, img.URL, img.AltText, img.SortOrder).Scan(&img.ID); err != nil {
		if rangeErr := outOfRange(err, "image"); rangeErr != nil {
			return rangeErr
		}
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// Update overwrites an image of its product.
func (r *ImageRepository) Update(ctx context.Context, img *domain.Image) error {
	query := `
		UPDATE product_images
		SET url = $1, alt_text = $2, sort_order = $3
		WHERE id = $4 AND product_id = $5`

	ct, err := r.db.Exec(ctx, query, img.URL, img.AltText, img.SortOrder, img.ID, img.ProductID)
	if err != nil {
		if rangeErr := outOfRange(err, "image"); rangeErr != nil {
			return rangeErr
		}
		return fmt.Errorf("update image: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("image", img.ID)
	}
	return nil
}

// DeleteByIDs removes the listed images of productID.
func (r *ImageRepository) DeleteByIDs(ctx context.Context, productID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM product_images WHERE product_id = $1 AND id = ANY($2)`,
		productID, ids,
	)
	if err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	return nil
}

func scanImage(row pgx.Row, img *domain.Image) error {
	return row.Scan(&img.ID, &img.ProductID, &img.URL, &img.AltText, &img.SortOrder)
}
