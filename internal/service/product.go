package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/reconcile"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// ProductServiceConfig tunes how product writes behave.
type ProductServiceConfig struct {
	// VariantPolicy selects how variant lists are reconciled on update.
	// Images always merge.
	VariantPolicy reconcile.Policy
	// Locker, when set, rejects a concurrent second writer to the same
	// product instead of letting it queue on the row lock.
	Locker Locker
}

// ProductService owns the product aggregate: the product row, its variants,
// images, size links and sub-category links. Every write runs in a single
// transaction and returns the aggregate as committed.
type ProductService struct {
	store         repository.Store
	producer      EventPublisher
	locker        Locker
	variantPolicy reconcile.Policy
	logger        *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(store repository.Store, producer EventPublisher, cfg ProductServiceConfig, logger *slog.Logger) *ProductService {
	policy := cfg.VariantPolicy
	if policy == "" {
		policy = reconcile.PolicyMerge
	}
	return &ProductService{
		store:         store,
		producer:      producer,
		locker:        cfg.Locker,
		variantPolicy: policy,
		logger:        logger,
	}
}

// Create inserts a product with all of its children. Every reference is
// resolved before the first write, so a bad reference writes nothing.
func (s *ProductService) Create(ctx context.Context, in *domain.CreateProductInput) (*domain.ProductDetail, error) {
	var detail *domain.ProductDetail

	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		categoryID, err := resolveCategory(ctx, repos.Categories, in.CategoryName)
		if err != nil {
			return err
		}
		if err := checkSizes(ctx, repos.Sizes, in.SizeIDs); err != nil {
			return err
		}
		subIDs, err := resolveCategories(ctx, repos.Categories, in.SubCategoryNames)
		if err != nil {
			return err
		}

		product := &domain.Product{
			Name:            in.Name,
			Price:           in.Price,
			Description:     in.Description,
			MainImageURL:    in.MainImageURL,
			CategoryID:      categoryID,
			ShippingPrice:   in.ShippingPrice,
			MetaTitle:       in.MetaTitle,
			MetaDescription: in.MetaDescription,
			IsActive:        in.IsActive,
			IsFeatured:      in.IsFeatured,
		}
		if err := repos.Products.Create(ctx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}

		for _, v := range in.Variants {
			v.ID = 0
			v.ProductID = product.ID
			if err := repos.Variants.Create(ctx, &v); err != nil {
				return fmt.Errorf("create variant: %w", err)
			}
		}
		for _, img := range in.Images {
			img.ID = 0
			img.ProductID = product.ID
			if err := repos.Images.Create(ctx, &img); err != nil {
				return fmt.Errorf("create image: %w", err)
			}
		}

		sizeIDs, _ := reconcile.SetDiff(nil, in.SizeIDs)
		if err := repos.Links.AddSizes(ctx, product.ID, sizeIDs); err != nil {
			return fmt.Errorf("link sizes: %w", err)
		}
		if err := repos.Links.AddSubCategories(ctx, product.ID, subIDs); err != nil {
			return fmt.Errorf("link sub-categories: %w", err)
		}

		detail, err = loadDetail(ctx, repos, product.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	recordCounts("variants", reconcile.Counts{Inserted: len(detail.Variants)})
	recordCounts("images", reconcile.Counts{Inserted: len(detail.Images)})

	if err := s.producer.PublishProductCreated(ctx, detail); err != nil {
		s.logPublishFailure(ctx, "product.created", detail.ID, err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", detail.ID),
		slog.Int64("category_id", detail.CategoryID),
		slog.Int("variants", len(detail.Variants)),
		slog.Int("images", len(detail.Images)),
	)
	return detail, nil
}

// Get returns a fully materialized product.
func (s *ProductService) Get(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	detail, err := loadDetail(ctx, s.store.Repositories(), id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return detail, nil
}

// List returns every product, fully materialized.
func (s *ProductService) List(ctx context.Context) ([]domain.ProductDetail, error) {
	repos := s.store.Repositories()
	products, err := repos.Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if err := materialize(ctx, repos, products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ListVariants returns the variants of a product.
func (s *ProductService) ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error) {
	detail, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return detail.Variants, nil
}

// Update applies a partial update. Scalars that are nil and collections
// that are nil are left as they are; a non-nil empty collection removes
// every child of that kind.
func (s *ProductService) Update(ctx context.Context, id int64, in *domain.UpdateProductInput) (*domain.ProductDetail, error) {
	if in.ID != 0 && in.ID != id {
		return nil, apperrors.IDMismatch(id, in.ID)
	}

	var counts map[string]reconcile.Counts
	detail, err := s.mutate(ctx, id, func(repos repository.Repositories, product *domain.Product) error {
		if in.CategoryName != nil {
			categoryID, err := resolveCategory(ctx, repos.Categories, *in.CategoryName)
			if err != nil {
				return err
			}
			product.CategoryID = categoryID
		}

		in.Apply(product)
		if err := repos.Products.Update(ctx, product); err != nil {
			return fmt.Errorf("update product: %w", err)
		}

		var err error
		counts, err = s.reconcileChildren(ctx, repos, id, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	for collection, c := range counts {
		recordCounts(collection, c)
	}
	s.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", id))
	return detail, nil
}

// Delete removes a product. Children and links go with it.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	release, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	err = s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Products.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logPublishFailure(ctx, "product.deleted", id, err)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))
	return nil
}

// ListImages returns the images of a product in display order.
func (s *ProductService) ListImages(ctx context.Context, productID int64) ([]domain.Image, error) {
	detail, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return detail.Images, nil
}

// GetImage returns one image of a product.
func (s *ProductService) GetImage(ctx context.Context, productID, imageID int64) (*domain.Image, error) {
	img, err := s.store.Repositories().Images.GetByID(ctx, productID, imageID)
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

// AddImage appends an image to a product.
func (s *ProductService) AddImage(ctx context.Context, productID int64, img domain.Image) (*domain.Image, error) {
	img.ID = 0
	img.ProductID = productID

	_, err := s.mutate(ctx, productID, func(repos repository.Repositories, _ *domain.Product) error {
		if err := repos.Images.Create(ctx, &img); err != nil {
			return fmt.Errorf("create image: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// UpdateImage overwrites one image of a product. A body id that differs
// from imageID is rejected.
func (s *ProductService) UpdateImage(ctx context.Context, productID, imageID int64, img domain.Image) error {
	if img.ID != 0 && img.ID != imageID {
		return apperrors.IDMismatch(imageID, img.ID)
	}
	img.ID = imageID
	img.ProductID = productID

	_, err := s.mutate(ctx, productID, func(repos repository.Repositories, _ *domain.Product) error {
		if _, err := repos.Images.GetByID(ctx, productID, imageID); err != nil {
			return fmt.Errorf("get image: %w", err)
		}
		if err := repos.Images.Update(ctx, &img); err != nil {
			return fmt.Errorf("update image: %w", err)
		}
		return nil
	})
	return err
}

// RemoveImage deletes one image of a product.
func (s *ProductService) RemoveImage(ctx context.Context, productID, imageID int64) error {
	_, err := s.mutate(ctx, productID, func(repos repository.Repositories, _ *domain.Product) error {
		if _, err := repos.Images.GetByID(ctx, productID, imageID); err != nil {
			return fmt.Errorf("get image: %w", err)
		}
		if err := repos.Images.DeleteByIDs(ctx, productID, []int64{imageID}); err != nil {
			return fmt.Errorf("delete image: %w", err)
		}
		return nil
	})
	return err
}

// mutate is the single write path for an existing product. It takes the
// optional write lock, locks the product row, runs fn and reloads the
// aggregate inside one transaction, then publishes product.updated.
func (s *ProductService) mutate(ctx context.Context, id int64, fn func(repos repository.Repositories, product *domain.Product) error) (*domain.ProductDetail, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	var detail *domain.ProductDetail
	err = s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		product, err := repos.Products.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}
		if err := fn(repos, product); err != nil {
			return err
		}
		detail, err = loadDetail(ctx, repos, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishProductUpdated(ctx, detail); err != nil {
		s.logPublishFailure(ctx, "product.updated", id, err)
	}
	return detail, nil
}

func (s *ProductService) reconcileChildren(ctx context.Context, repos repository.Repositories, id int64, in *domain.UpdateProductInput) (map[string]reconcile.Counts, error) {
	counts := make(map[string]reconcile.Counts, 2)
	ids := []int64{id}

	if in.Variants != nil {
		persisted, err := repos.Variants.ListByProducts(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load variants: %w", err)
		}
		incoming := make([]domain.Variant, len(*in.Variants))
		for i, v := range *in.Variants {
			v.ProductID = id
			incoming[i] = v
		}
		plan, err := reconcile.Reconcile(s.variantPolicy, "variant", persisted[id], incoming)
		if err != nil {
			return nil, err
		}
		err = reconcile.Apply(ctx, plan, reconcile.Ops[domain.Variant]{
			Delete: func(ctx context.Context, ids []int64) error { return repos.Variants.DeleteByIDs(ctx, id, ids) },
			Update: func(ctx context.Context, v domain.Variant) error { return repos.Variants.Update(ctx, &v) },
			Insert: func(ctx context.Context, v domain.Variant) error {
				v.ID = 0
				return repos.Variants.Create(ctx, &v)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("reconcile variants: %w", err)
		}
		counts["variants"] = plan.Counts()
	}

	if in.Images != nil {
		persisted, err := repos.Images.ListByProducts(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load images: %w", err)
		}
		incoming := make([]domain.Image, len(*in.Images))
		for i, img := range *in.Images {
			img.ProductID = id
			incoming[i] = img
		}
		plan, err := reconcile.Merge("image", persisted[id], incoming)
		if err != nil {
			return nil, err
		}
		err = reconcile.Apply(ctx, plan, reconcile.Ops[domain.Image]{
			Delete: func(ctx context.Context, ids []int64) error { return repos.Images.DeleteByIDs(ctx, id, ids) },
			Update: func(ctx context.Context, img domain.Image) error { return repos.Images.Update(ctx, &img) },
			Insert: func(ctx context.Context, img domain.Image) error {
				img.ID = 0
				return repos.Images.Create(ctx, &img)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("reconcile images: %w", err)
		}
		counts["images"] = plan.Counts()
	}

	if in.SizeIDs != nil {
		linked, err := repos.Links.SizesByProducts(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load sizes: %w", err)
		}
		current := make([]int64, len(linked[id]))
		for i, size := range linked[id] {
			current[i] = size.ID
		}
		add, remove := reconcile.SetDiff(current, *in.SizeIDs)
		if err := checkSizes(ctx, repos.Sizes, add); err != nil {
			return nil, err
		}
		if err := repos.Links.RemoveSizes(ctx, id, remove); err != nil {
			return nil, fmt.Errorf("unlink sizes: %w", err)
		}
		if err := repos.Links.AddSizes(ctx, id, add); err != nil {
			return nil, fmt.Errorf("link sizes: %w", err)
		}
	}

	if in.SubCategoryNames != nil {
		want, err := resolveCategories(ctx, repos.Categories, *in.SubCategoryNames)
		if err != nil {
			return nil, err
		}
		linked, err := repos.Links.SubCategoriesByProducts(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load sub-categories: %w", err)
		}
		current := make([]int64, len(linked[id]))
		for i, ref := range linked[id] {
			current[i] = ref.ID
		}
		add, remove := reconcile.SetDiff(current, want)
		if err := repos.Links.RemoveSubCategories(ctx, id, remove); err != nil {
			return nil, fmt.Errorf("unlink sub-categories: %w", err)
		}
		if err := repos.Links.AddSubCategories(ctx, id, add); err != nil {
			return nil, fmt.Errorf("link sub-categories: %w", err)
		}
	}

	return counts, nil
}

func (s *ProductService) lock(ctx context.Context, id int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Acquire(ctx, "product:"+strconv.FormatInt(id, 10))
}

func (s *ProductService) logPublishFailure(ctx context.Context, eventType string, id int64, err error) {
	s.logger.ErrorContext(ctx, "failed to publish "+eventType+" event",
		slog.Int64("product_id", id),
		slog.String("error", err.Error()),
	)
}

// checkSizes fails with INVALID_REFERENCE naming the first unknown size id.
func checkSizes(ctx context.Context, repo repository.SizeRepository, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := repo.Missing(ctx, ids)
	if err != nil {
		return fmt.Errorf("check sizes: %w", err)
	}
	if len(missing) > 0 {
		return apperrors.InvalidReference("product size", strconv.FormatInt(missing[0], 10))
	}
	return nil
}
