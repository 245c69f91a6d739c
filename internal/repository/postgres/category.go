package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/pkg/database"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// categoryColumns is the standard SELECT column list for categories.
const categoryColumns = `c.id, c.name, c.parent_id, c.description, c.sort_order, c.created_at, c.updated_at`

// CategoryRepository implements category persistence using PostgreSQL.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category and stores the generated id on c.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
		INSERT INTO categories (name, parent_id, description, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		c.Name,
		c.ParentID,
		c.Description,
		c.SortOrder,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("parent category", derefID(c.ParentID))
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by id.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories c WHERE c.id = $1`, categoryColumns)

	var c domain.Category
	if err := scanCategory(r.db.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", id)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// FindByName returns the lowest-id category whose name matches exactly.
// Names are not unique, so later duplicates are never returned.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories c WHERE c.name = $1 ORDER BY c.id LIMIT 1`, categoryColumns)

	var c domain.Category
	if err := scanCategory(r.db.QueryRow(ctx, query, name), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return &c, nil
}

// ListWithParent returns every category with the id and name of its
// immediate parent.
func (r *CategoryRepository) ListWithParent(ctx context.Context) ([]domain.CategoryWithParent, error) {
	query := fmt.Sprintf(`
		SELECT %s, parent.name
		FROM categories c
		LEFT JOIN categories parent ON parent.id = c.parent_id
		ORDER BY c.sort_order, c.id`, categoryColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.CategoryWithParent{}
	for rows.Next() {
		var (
			c          domain.CategoryWithParent
			parentName *string
		)
		if err := rows.Scan(append(categoryDest(&c.Category), &parentName)...); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		if c.ParentID != nil && parentName != nil {
			c.Parent = &domain.CategoryRef{ID: *c.ParentID, Name: *parentName}
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

// ListRoots returns the categories that have no parent.
func (r *CategoryRepository) ListRoots(ctx context.Context) ([]domain.Category, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM categories c
		WHERE c.parent_id IS NULL
		ORDER BY c.sort_order, c.id`, categoryColumns)

	return r.queryCategories(ctx, "list root categories", query)
}

// ListChildren returns the direct children of parentID.
func (r *CategoryRepository) ListChildren(ctx context.Context, parentID int64) ([]domain.Category, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM categories c
		WHERE c.parent_id = $1
		ORDER BY c.sort_order, c.id`, categoryColumns)

	return r.queryCategories(ctx, "list child categories", query, parentID)
}

// Ancestors walks parent links upward from id and returns every id on the
// path, id first. The depth bound stops the walk on a corrupted cycle.
func (r *CategoryRepository) Ancestors(ctx context.Context, id int64) ([]int64, error) {
	query := `
		WITH RECURSIVE chain (id, parent_id, depth) AS (
			SELECT id, parent_id, 0 FROM categories WHERE id = $1
			UNION ALL
			SELECT c.id, c.parent_id, chain.depth + 1
			FROM categories c
			JOIN chain ON c.id = chain.parent_id
			WHERE chain.depth < $2
		)
		SELECT id FROM chain ORDER BY depth`

	rows, err := r.db.Query(ctx, query, id, maxCategoryDepth)
	if err != nil {
		return nil, fmt.Errorf("walk category ancestors: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var ancestor int64
		if err := rows.Scan(&ancestor); err != nil {
			return nil, fmt.Errorf("scan ancestor id: %w", err)
		}
		ids = append(ids, ancestor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ancestor rows: %w", err)
	}
	return ids, nil
}

// maxCategoryDepth bounds the ancestor walk.
const maxCategoryDepth = 64

// categoryTreeLockKey is the advisory lock key held by category moves.
const categoryTreeLockKey int64 = 0x63617467 // "catg"

// LockTree takes a transaction-scoped advisory lock. Outside a transaction
// the lock is released as soon as the statement finishes.
func (r *CategoryRepository) LockTree(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, categoryTreeLockKey); err != nil {
		return fmt.Errorf("lock category tree: %w", err)
	}
	return nil
}

// IsReferenced reports whether any product, sub-category link or child
// category still points at id.
func (r *CategoryRepository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM products WHERE category_id = $1)
		    OR EXISTS (SELECT 1 FROM product_sub_categories WHERE category_id = $1)
		    OR EXISTS (SELECT 1 FROM categories WHERE parent_id = $1)`

	var referenced bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&referenced); err != nil {
		return false, fmt.Errorf("check category references: %w", err)
	}
	return referenced, nil
}

// Update overwrites every writable field of the category.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE categories
		SET name = $1, parent_id = $2, description = $3, sort_order = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.db.Exec(ctx, query,
		c.Name,
		c.ParentID,
		c.Description,
		c.SortOrder,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("parent category", derefID(c.ParentID))
		}
		return fmt.Errorf("update category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", c.ID)
	}
	return nil
}

// Delete removes a category. Rows that still reference it make the delete
// fail with CATEGORY_IN_USE.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.InUse("category", id)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}
	return nil
}

func (r *CategoryRepository) queryCategories(ctx context.Context, what, query string, args ...any) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := scanCategory(rows, &c); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

func categoryDest(c *domain.Category) []any {
	return []any{
		&c.ID,
		&c.Name,
		&c.ParentID,
		&c.Description,
		&c.SortOrder,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}

func scanCategory(row pgx.Row, c *domain.Category) error {
	return row.Scan(categoryDest(c)...)
}

func derefID(id *int64) any {
	if id == nil {
		return "null"
	}
	return *id
}
