// Package app holds the application services and business logic.
package app

import (
	"context"
	"fmt"
	"sync"

	"healthsync/internal/domain"
)

// CatalogService resolves metric names against the seeded metric catalog.
// Read-mostly: resolved types are cached for the life of the service.
type CatalogService struct {
	repo domain.MetricTypeRepository

	mu     sync.RWMutex
	byName map[string]domain.MetricType
}

// NewCatalogService creates a CatalogService backed by the given repository.
func NewCatalogService(repo domain.MetricTypeRepository) *CatalogService {
	return &CatalogService{
		repo:   repo,
		byName: make(map[string]domain.MetricType),
	}
}

// Seed installs the default metric catalog, skipping names that already exist.
func (s *CatalogService) Seed(ctx context.Context) error {
	for _, mt := range domain.DefaultMetricTypes() {
		existing, err := s.repo.GetMetricTypeByName(ctx, mt.Name)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if existing != nil {
			continue
		}
		if _, err := s.repo.CreateMetricType(ctx, mt); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}
	return nil
}

// Resolve returns the metric type for name, or ErrUnknownMetric if the
// catalog has no such entry.
func (s *CatalogService) Resolve(ctx context.Context, name string) (*domain.MetricType, error) {
	s.mu.RLock()
	if mt, ok := s.byName[name]; ok {
		s.mu.RUnlock()
		return &mt, nil
	}
	s.mu.RUnlock()

	mt, err := s.repo.GetMetricTypeByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if mt == nil {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrUnknownMetric)
	}

	s.mu.Lock()
	s.byName[name] = *mt
	s.mu.Unlock()
	return mt, nil
}

// List returns all catalog entries.
func (s *CatalogService) List(ctx context.Context) ([]domain.MetricType, error) {
	return s.repo.ListMetricTypes(ctx)
}
