package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/smallstore/pos/internal/core/domain"
	"github.com/smallstore/pos/internal/port"
)

// CatalogService serves display-only price lookups cache-aside. The cache is
// best-effort: validation and commit paths never read it.
type CatalogService struct {
	catalog port.CatalogRepository
	cache   port.CacheRepository
	logger  *zap.Logger
}

func NewCatalogService(catalog port.CatalogRepository, cache port.CacheRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, cache: cache, logger: logger}
}

func (s *CatalogService) PriceCheck(ctx context.Context, name string) (*domain.ItemSnapshot, error) {
	snap, err := s.cache.GetSnapshot(ctx, name)
	if err != nil {
		s.logger.Warn("snapshot cache read failed", zap.String("item", name), zap.Error(err))
	}
	if snap != nil {
		return snap, nil
	}

	snap, err = s.catalog.ResolveItem(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve item: %w", err)
	}
	if snap == nil {
		return nil, &domain.UnknownItemError{ItemName: name}
	}

	if err := s.cache.SetSnapshot(ctx, snap); err != nil {
		s.logger.Warn("snapshot cache write failed", zap.String("item", name), zap.Error(err))
	}
	return snap, nil
}
