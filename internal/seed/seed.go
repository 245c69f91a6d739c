// Package seed populates a catalog with a deterministic fashion assortment.
// Everything is written through the services, so seeded products go through
// the same category resolution and reconciliation as API writes.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog/internal/domain"
)

// CategoryCreator creates categories.
type CategoryCreator interface {
	Create(ctx context.Context, in domain.CategoryInput) (*domain.Category, error)
}

// SizeCatalog lists and creates product sizes.
type SizeCatalog interface {
	List(ctx context.Context) ([]domain.ProductSize, error)
	Create(ctx context.Context, name string) (*domain.ProductSize, error)
}

// ProductCreator creates product aggregates.
type ProductCreator interface {
	Create(ctx context.Context, in *domain.CreateProductInput) (*domain.ProductDetail, error)
}

type department struct {
	name   string
	leaves []string
}

var departments = []department{
	{"Women", []string{"Dresses", "Tops", "Outerwear"}},
	{"Men", []string{"Shirts", "Trousers", "Knitwear"}},
	{"Accessories", []string{"Bags", "Scarves"}},
}

var (
	sizeNames  = []string{"XS", "S", "M", "L", "XL"}
	colors     = []string{"Black", "White", "Navy", "Beige", "Olive", "Burgundy"}
	adjectives = []string{"Classic", "Relaxed", "Slim", "Oversized", "Cropped", "Tailored"}
	materials  = []string{"Cotton", "Linen", "Wool", "Denim", "Satin", "Jersey"}
)

// Result counts what a run created.
type Result struct {
	Categories int
	Sizes      int
	Products   int
	Failed     int
}

// Seeder builds the demo catalog.
type Seeder struct {
	categories CategoryCreator
	sizes      SizeCatalog
	products   ProductCreator
	logger     *slog.Logger
	rng        *rand.Rand
}

// New creates a seeder. The same seed always yields the same assortment.
func New(categories CategoryCreator, sizes SizeCatalog, products ProductCreator, logger *slog.Logger, seed uint64) *Seeder {
	return &Seeder{
		categories: categories,
		sizes:      sizes,
		products:   products,
		logger:     logger,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Run creates the category tree, fills in missing sizes and then creates n
// products spread over the leaf categories. A failed product is logged and
// counted; category and size failures abort the run.
func (s *Seeder) Run(ctx context.Context, n int) (Result, error) {
	var res Result

	for _, dept := range departments {
		parent, err := s.categories.Create(ctx, domain.CategoryInput{Name: dept.name})
		if err != nil {
			return res, fmt.Errorf("seed category %s: %w", dept.name, err)
		}
		res.Categories++
		for i, leaf := range dept.leaves {
			_, err := s.categories.Create(ctx, domain.CategoryInput{Name: leaf, ParentID: &parent.ID, SortOrder: i})
			if err != nil {
				return res, fmt.Errorf("seed category %s: %w", leaf, err)
			}
			res.Categories++
		}
	}

	sizeIDs, created, err := s.ensureSizes(ctx)
	if err != nil {
		return res, err
	}
	res.Sizes = created

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		in := s.product(i, sizeIDs)
		if _, err := s.products.Create(ctx, in); err != nil {
			s.logger.WarnContext(ctx, "seed product failed",
				slog.String("name", in.Name),
				slog.String("error", err.Error()),
			)
			res.Failed++
			continue
		}
		res.Products++
		if res.Products%100 == 0 {
			s.logger.InfoContext(ctx, "seed progress", slog.Int("products", res.Products), slog.Int("target", n))
		}
	}
	return res, nil
}

func (s *Seeder) ensureSizes(ctx context.Context) (map[string]int64, int, error) {
	existing, err := s.sizes.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list sizes: %w", err)
	}
	ids := make(map[string]int64, len(sizeNames))
	for _, sz := range existing {
		ids[sz.SizeName] = sz.ID
	}

	created := 0
	for _, name := range sizeNames {
		if _, ok := ids[name]; ok {
			continue
		}
		sz, err := s.sizes.Create(ctx, name)
		if err != nil {
			return nil, created, fmt.Errorf("seed size %s: %w", name, err)
		}
		ids[name] = sz.ID
		created++
	}
	return ids, created, nil
}

func (s *Seeder) product(i int, sizeIDs map[string]int64) *domain.CreateProductInput {
	dept := departments[s.rng.IntN(len(departments))]
	leaf := dept.leaves[s.rng.IntN(len(dept.leaves))]
	name := fmt.Sprintf("%s %s %s", pick(s.rng, adjectives), pick(s.rng, materials), singular(leaf))

	in := &domain.CreateProductInput{
		Name:             name,
		Price:            decimal.New(int64(999+s.rng.IntN(20000)), -2),
		Description:      fmt.Sprintf("%s from the %s collection.", name, dept.name),
		CategoryName:     leaf,
		ShippingPrice:    decimal.New(int64(s.rng.IntN(3))*250, -2),
		MetaTitle:        name,
		IsActive:         s.rng.IntN(10) > 0,
		IsFeatured:       s.rng.IntN(20) == 0,
		SubCategoryNames: []string{dept.name},
	}

	// A contiguous run of sizes in one or two colors.
	first := s.rng.IntN(len(sizeNames))
	last := first + s.rng.IntN(len(sizeNames)-first)
	colorCount := 1 + s.rng.IntN(2)
	for _, size := range sizeNames[first : last+1] {
		for c := 0; c < colorCount; c++ {
			in.Variants = append(in.Variants, domain.Variant{
				Size:  size,
				Color: colors[(i+c)%len(colors)],
				Stock: s.rng.IntN(50),
			})
		}
		in.SizeIDs = append(in.SizeIDs, sizeIDs[size])
	}

	imageCount := 1 + s.rng.IntN(3)
	for n := 0; n < imageCount; n++ {
		in.Images = append(in.Images, domain.Image{
			URL:       fmt.Sprintf("https://cdn.example.com/catalog/%d/%d.jpg", i+1, n+1),
			AltText:   fmt.Sprintf("%s view %d", name, n+1),
			SortOrder: n,
		})
	}
	in.MainImageURL = in.Images[0].URL
	return in
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

// singular turns a plural category name into a product noun.
func singular(leaf string) string {
	switch leaf {
	case "Dresses":
		return "Dress"
	case "Trousers", "Knitwear":
		return leaf
	}
	if n := len(leaf); n > 1 && leaf[n-1] == 's' {
		return leaf[:n-1]
	}
	return leaf
}
