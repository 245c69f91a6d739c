package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// EventPublisher publishes product domain events after a commit.
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, product *domain.ProductDetail) error
	PublishProductUpdated(ctx context.Context, product *domain.ProductDetail) error
	PublishProductDeleted(ctx context.Context, id int64) error
}

// Locker grants exclusive write access to a key. Acquire fails with a
// CONFLICT error when the key is already held.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// resolveCategory maps a category name to the lowest matching id.
func resolveCategory(ctx context.Context, repo repository.CategoryRepository, name string) (int64, error) {
	if name == "" {
		return 0, apperrors.InvalidInput("category name is required")
	}
	c, err := repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, apperrors.InvalidReference("category", name)
		}
		return 0, fmt.Errorf("resolve category: %w", err)
	}
	return c.ID, nil
}

// resolveCategories resolves every name, dropping repeated ids.
func resolveCategories(ctx context.Context, repo repository.CategoryRepository, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	seen := make(map[int64]struct{}, len(names))
	for _, name := range names {
		id, err := resolveCategory(ctx, repo, name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// materialize fills the child collections of every product with one query
// per collection.
func materialize(ctx context.Context, repos repository.Repositories, products []domain.ProductDetail) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}

	variants, err := repos.Variants.ListByProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("load variants: %w", err)
	}
	images, err := repos.Images.ListByProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("load images: %w", err)
	}
	sizes, err := repos.Links.SizesByProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("load sizes: %w", err)
	}
	subs, err := repos.Links.SubCategoriesByProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("load sub-categories: %w", err)
	}

	for i := range products {
		p := &products[i]
		p.Variants = orEmpty(variants[p.ID])
		p.Images = orEmpty(images[p.ID])
		p.Sizes = orEmpty(sizes[p.ID])
		p.SubCategories = orEmpty(subs[p.ID])
	}
	return nil
}

func loadDetail(ctx context.Context, repos repository.Repositories, id int64) (*domain.ProductDetail, error) {
	detail, err := repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details := []domain.ProductDetail{*detail}
	if err := materialize(ctx, repos, details); err != nil {
		return nil, err
	}
	return &details[0], nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
