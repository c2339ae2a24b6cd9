package cache

import (
	"context"
	"time"

	"ventas/backend/internal/domain"
)

type SummaryCache interface {
	Get(ctx context.Context, key string) (*domain.SaleSummary, bool, error)
	Set(ctx context.Context, key string, value *domain.SaleSummary, ttl time.Duration) error
}

type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(_ context.Context, _ string) (*domain.SaleSummary, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(_ context.Context, _ string, _ *domain.SaleSummary, _ time.Duration) error {
	return nil
}
