package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/catalog/internal/repository"
	"github.com/utafrali/catalog/pkg/database"
)

// Store hands out repositories bound to the pool and runs transactions.
type Store struct {
	db database.DBTX
}

// NewStore creates a Store over db, usually a traced *pgxpool.Pool.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// Repositories returns repositories that run each statement on its own.
func (s *Store) Repositories() repository.Repositories {
	return newRepositories(s.db)
}

// RunInTx begins a transaction, runs fn with repositories bound to it and
// commits when fn succeeds. Any error rolls the whole transaction back.
// Postgres runs it at its default READ COMMITTED isolation level.
func (s *Store) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func newRepositories(db database.DBTX) repository.Repositories {
	return repository.Repositories{
		Products:   NewProductRepository(db),
		Categories: NewCategoryRepository(db),
		Variants:   NewVariantRepository(db),
		Images:     NewImageRepository(db),
		Sizes:      NewSizeRepository(db),
		Links:      NewLinkRepository(db),
	}
}
