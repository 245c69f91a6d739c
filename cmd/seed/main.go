// Command seed fills a catalog database with a demo fashion assortment.
//
// Run: go run ./cmd/seed -products 1000
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/catalog/internal/config"
	"github.com/utafrali/catalog/internal/event"
	"github.com/utafrali/catalog/internal/repository/postgres"
	"github.com/utafrali/catalog/internal/seed"
	"github.com/utafrali/catalog/internal/service"
	"github.com/utafrali/catalog/migrations"
	"github.com/utafrali/catalog/pkg/database"
	pkgkafka "github.com/utafrali/catalog/pkg/kafka"
	"github.com/utafrali/catalog/pkg/logger"
)

func main() {
	count := flag.Int("products", 1000, "number of products to create")
	rngSeed := flag.Uint64("seed", 1, "random seed; the same seed yields the same assortment")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: "catalog-seed", Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log, *count, *rngSeed); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, count int, rngSeed uint64) error {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return err
	}

	// Seeding bypasses Kafka; consumers are expected to resync from the database.
	store := postgres.NewStore(pool)
	products := service.NewProductService(store, event.NewProducer(pkgkafka.NopPublisher{}, log),
		service.ProductServiceConfig{VariantPolicy: cfg.VariantPolicy()}, log)

	seeder := seed.New(service.NewCategoryService(store, log), service.NewSizeService(store, log), products, log, rngSeed)
	res, err := seeder.Run(ctx, count)
	if err != nil {
		return err
	}

	log.Info("seed complete",
		slog.Int("categories", res.Categories),
		slog.Int("sizes", res.Sizes),
		slog.Int("products", res.Products),
		slog.Int("failed", res.Failed),
	)
	return nil
}
