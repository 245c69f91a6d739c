package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// CategoryService manages the category tree and resolves category names.
type CategoryService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(store repository.Store, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		store:  store,
		logger: logger,
	}
}

// Resolve returns the id of the category named name. Names are not unique;
// the lowest id wins. An unknown name is an INVALID_REFERENCE error.
func (s *CategoryService) Resolve(ctx context.Context, name string) (int64, error) {
	return resolveCategory(ctx, s.store.Repositories().Categories, name)
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := s.store.Repositories().Categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListWithParent returns every category with its immediate parent.
func (s *CategoryService) ListWithParent(ctx context.Context) ([]domain.CategoryWithParent, error) {
	categories, err := s.store.Repositories().Categories.ListWithParent(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListRoots returns the top-level categories.
func (s *CategoryService) ListRoots(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.store.Repositories().Categories.ListRoots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list root categories: %w", err)
	}
	return categories, nil
}

// ListChildren returns the direct children of parentID.
func (s *CategoryService) ListChildren(ctx context.Context, parentID int64) ([]domain.Category, error) {
	categories, err := s.store.Repositories().Categories.ListChildren(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child categories: %w", err)
	}
	return categories, nil
}

// ListProducts returns the materialized products filed under a category,
// either as their primary category or through a sub-category link.
func (s *CategoryService) ListProducts(ctx context.Context, categoryID int64) ([]domain.ProductDetail, error) {
	repos := s.store.Repositories()
	if _, err := repos.Categories.GetByID(ctx, categoryID); err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	products, err := repos.Products.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category products: %w", err)
	}
	if err := materialize(ctx, repos, products); err != nil {
		return nil, fmt.Errorf("list category products: %w", err)
	}
	return products, nil
}

// Create inserts a category under an optional parent.
func (s *CategoryService) Create(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	c := &domain.Category{
		Name:        in.Name,
		ParentID:    in.ParentID,
		Description: in.Description,
		SortOrder:   in.SortOrder,
	}

	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if c.ParentID != nil {
			if err := requireParent(ctx, repos.Categories, *c.ParentID); err != nil {
				return err
			}
		}
		if err := repos.Categories.Create(ctx, c); err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "category created",
		slog.Int64("category_id", c.ID),
		slog.String("name", c.Name),
	)
	return c, nil
}

// Update replaces every writable field of a category. Moving a category
// under itself or one of its descendants is rejected.
func (s *CategoryService) Update(ctx context.Context, id int64, in domain.CategoryInput) error {
	if in.ID != 0 && in.ID != id {
		return apperrors.IDMismatch(id, in.ID)
	}

	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if in.ParentID != nil {
			if err := repos.Categories.LockTree(ctx); err != nil {
				return err
			}
		}

		c, err := repos.Categories.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get category: %w", err)
		}

		if in.ParentID != nil && !sameParent(c.ParentID, in.ParentID) {
			if err := checkNoCycle(ctx, repos.Categories, id, *in.ParentID); err != nil {
				return err
			}
		}

		c.Name = in.Name
		c.ParentID = in.ParentID
		c.Description = in.Description
		c.SortOrder = in.SortOrder
		if err := repos.Categories.Update(ctx, c); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "category updated", slog.Int64("category_id", id))
	return nil
}

// Delete removes a category that nothing references. A category still used
// by a product, a sub-category link or a child category fails with
// CATEGORY_IN_USE.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Categories.GetByID(ctx, id); err != nil {
			return fmt.Errorf("get category: %w", err)
		}
		referenced, err := repos.Categories.IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return apperrors.InUse("category", id)
		}
		if err := repos.Categories.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "category deleted", slog.Int64("category_id", id))
	return nil
}

func requireParent(ctx context.Context, repo repository.CategoryRepository, parentID int64) error {
	if _, err := repo.GetByID(ctx, parentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidReference("parent category", strconv.FormatInt(parentID, 10))
		}
		return fmt.Errorf("get parent category: %w", err)
	}
	return nil
}

// checkNoCycle rejects parentID when it is id itself or lies below id.
func checkNoCycle(ctx context.Context, repo repository.CategoryRepository, id, parentID int64) error {
	if parentID == id {
		return apperrors.InvalidInput("a category cannot be its own parent")
	}
	ancestors, err := repo.Ancestors(ctx, parentID)
	if err != nil {
		return fmt.Errorf("check category cycle: %w", err)
	}
	if len(ancestors) == 0 {
		return apperrors.InvalidReference("parent category", strconv.FormatInt(parentID, 10))
	}
	if slices.Contains(ancestors, id) {
		return apperrors.InvalidInput(fmt.Sprintf("category %d cannot be moved under its own descendant %d", id, parentID))
	}
	return nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
