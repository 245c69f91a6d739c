package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// maxSizeNameLen is the longest size name accepted.
const maxSizeNameLen = 50

// SizeService manages the shared size catalog.
type SizeService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewSizeService creates a new size service.
func NewSizeService(store repository.Store, logger *slog.Logger) *SizeService {
	return &SizeService{
		store:  store,
		logger: logger,
	}
}

// Create adds a size to the catalog.
func (s *SizeService) Create(ctx context.Context, name string) (*domain.ProductSize, error) {
	name, err := normalizeSizeName(name)
	if err != nil {
		return nil, err
	}

	size := &domain.ProductSize{SizeName: name}
	if err := s.store.Repositories().Sizes.Create(ctx, size); err != nil {
		return nil, fmt.Errorf("create size: %w", err)
	}

	s.logger.InfoContext(ctx, "product size created",
		slog.Int64("size_id", size.ID),
		slog.String("size_name", size.SizeName),
	)
	return size, nil
}

// Get returns one size.
func (s *SizeService) Get(ctx context.Context, id int64) (*domain.ProductSize, error) {
	size, err := s.store.Repositories().Sizes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get size: %w", err)
	}
	return size, nil
}

// List returns the whole size catalog.
func (s *SizeService) List(ctx context.Context) ([]domain.ProductSize, error) {
	sizes, err := s.store.Repositories().Sizes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sizes: %w", err)
	}
	return sizes, nil
}

// Update renames a size. bodyID, when non-zero, must equal id.
func (s *SizeService) Update(ctx context.Context, id, bodyID int64, name string) error {
	if bodyID != 0 && bodyID != id {
		return apperrors.IDMismatch(id, bodyID)
	}
	name, err := normalizeSizeName(name)
	if err != nil {
		return err
	}

	if err := s.store.Repositories().Sizes.Update(ctx, &domain.ProductSize{ID: id, SizeName: name}); err != nil {
		return fmt.Errorf("update size: %w", err)
	}
	return nil
}

// Delete removes a size and its product links.
func (s *SizeService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Repositories().Sizes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete size: %w", err)
	}
	s.logger.InfoContext(ctx, "product size deleted", slog.Int64("size_id", id))
	return nil
}

func normalizeSizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.InvalidInput("size_name is required")
	}
	if utf8.RuneCountInString(name) > maxSizeNameLen {
		return "", apperrors.InvalidInput(fmt.Sprintf("size_name must be at most %d characters", maxSizeNameLen))
	}
	return name, nil
}
