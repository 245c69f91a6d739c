package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog/pkg/health"
	"github.com/utafrali/catalog/pkg/middleware"
)

// RouterOptions carries the operational pieces of the router. Zero values
// disable the corresponding feature.
type RouterOptions struct {
	CORSOrigins []string
	// CacheMaxAge is the max-age in seconds advertised on read responses.
	CacheMaxAge int
	PprofCIDRs  []string
	HTTPMetrics *middleware.HTTPMetrics
	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter creates a chi router with all catalog routes registered.
func NewRouter(
	products ProductService,
	categories CategoryService,
	sizes SizeService,
	healthHandler *health.Handler,
	opts RouterOptions,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogging(logger))
	if opts.HTTPMetrics != nil {
		r.Use(opts.HTTPMetrics.Handler)
	}
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(opts.CORSOrigins)))

	// Operational endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
	middleware.MountPprof(r, opts.PprofCIDRs, logger)

	productHandler := NewProductHandler(products, logger)
	categoryHandler := NewCategoryHandler(categories, logger)
	sizeHandler := NewSizeHandler(sizes, logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.CacheControl(opts.CacheMaxAge))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.ListCategories)
			r.Get("/hierarchy", categoryHandler.ListCategories)
			r.Get("/root", categoryHandler.ListRoots)
			r.Get("/subcategories/{parentId}", categoryHandler.ListSubcategories)
			r.Get("/products/{categoryId}", categoryHandler.ListProducts)
			r.Post("/", categoryHandler.CreateCategory)
			r.Get("/{id}", categoryHandler.GetCategory)
			r.Put("/{id}", categoryHandler.UpdateCategory)
			r.Delete("/{id}", categoryHandler.DeleteCategory)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Post("/", productHandler.CreateProduct)
			r.Get("/{id}", productHandler.GetProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
			r.Get("/{id}/variants", productHandler.ListVariants)
		})

		// Image sub-resources
		r.Route("/products/{productId}/images", func(r chi.Router) {
			r.Get("/", productHandler.ListImages)
			r.Post("/", productHandler.AddImage)
			r.Get("/{imageId}", productHandler.GetImage)
			r.Put("/{imageId}", productHandler.UpdateImage)
			r.Delete("/{imageId}", productHandler.RemoveImage)
		})

		r.Route("/product-sizes", func(r chi.Router) {
			r.Get("/", sizeHandler.ListSizes)
			r.Post("/", sizeHandler.CreateSize)
			r.Get("/{id}", sizeHandler.GetSize)
			r.Put("/{id}", sizeHandler.UpdateSize)
			r.Delete("/{id}", sizeHandler.DeleteSize)
		})
	})

	return r
}
