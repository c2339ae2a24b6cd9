package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ventas/backend/internal/access"
	"ventas/backend/internal/domain"
	"ventas/backend/internal/report"
	"ventas/backend/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Service orchestrates the sale use cases on a Repository backend. The caller
// identity is an explicit parameter on every method; the service never reads
// it from ambient state.
type Service struct {
	repo    store.Repository
	reports *report.Engine
	logger  *zap.Logger
}

func New(repo store.Repository, reports *report.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		reports: reports,
		logger:  logger,
	}
}

// CreateSale validates the full request, resolves the effective branch via
// the access policy, and persists a new record. Validation completes before
// any store call.
func (s *Service) CreateSale(ctx context.Context, actor domain.Actor, req domain.SaleCreateRequest) (domain.Sale, error) {
	req.SKU = strings.TrimSpace(req.SKU)
	if req.SKU == "" {
		return domain.Sale{}, fmt.Errorf("%w: sku is required", domain.ErrValidation)
	}
	if req.Units < 1 {
		return domain.Sale{}, fmt.Errorf("%w: units must be >= 1", domain.ErrValidation)
	}
	if !req.Price.IsPositive() {
		return domain.Sale{}, fmt.Errorf("%w: price must be > 0", domain.ErrValidation)
	}
	if req.SoldAt.IsZero() {
		return domain.Sale{}, fmt.Errorf("%w: sold_at is required", domain.ErrValidation)
	}

	branch, err := access.ResolveWriteBranch(actor, req.Branch)
	if err != nil {
		return domain.Sale{}, err
	}

	sale := domain.Sale{
		SKU:       req.SKU,
		Units:     req.Units,
		Price:     req.Price,
		Branch:    branch,
		SoldAt:    req.SoldAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		s.logger.Error("failed to save sale", zap.String("branch", branch), zap.Error(err))
		return domain.Sale{}, err
	}

	s.logger.Info("sale created",
		zap.String("sale_id", created.ID),
		zap.String("sku", created.SKU),
		zap.String("branch", created.Branch),
		zap.Int("units", created.Units),
	)
	return *created, nil
}

func (s *Service) GetSale(ctx context.Context, actor domain.Actor, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if err := access.Authorize(actor, *sale, access.ModeRead); err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

// ListSales applies the read scope and date normalization, then pages through
// the store. The store ordering (sold-at descending) is preserved as-is.
func (s *Service) ListSales(ctx context.Context, actor domain.Actor, filter domain.SaleFilter) (domain.SalePage, error) {
	branch := access.ResolveReadScope(actor, filter.Branch)
	from, to := normalizeRange(filter.From, filter.To)
	page, size := normalizePaging(filter.Page, filter.Size)

	sales, total, err := s.repo.SearchSales(ctx, from, to, branch, page, size)
	if err != nil {
		s.logger.Error("failed to search sales", zap.String("branch", branch), zap.Error(err))
		return domain.SalePage{}, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}

	return domain.SalePage{
		Items:      sales,
		TotalCount: total,
		Page:       page,
		Size:       size,
		TotalPages: totalPages,
	}, nil
}

// UpdateSale applies a partial patch: absent fields leave the stored value
// unchanged, supplied fields are re-validated by the create rules. A patch
// with no recognized field is a no-op success.
func (s *Service) UpdateSale(ctx context.Context, actor domain.Actor, id string, req domain.SaleUpdateRequest) (domain.Sale, error) {
	existing, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if err := access.Authorize(actor, *existing, access.ModeWrite); err != nil {
		return domain.Sale{}, err
	}

	if req.Units == nil && req.Price == nil {
		return *existing, nil
	}

	updated := *existing
	if req.Units != nil {
		if *req.Units < 1 {
			return domain.Sale{}, fmt.Errorf("%w: units must be >= 1", domain.ErrValidation)
		}
		updated.Units = *req.Units
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return domain.Sale{}, fmt.Errorf("%w: price must be > 0", domain.ErrValidation)
		}
		updated.Price = *req.Price
	}

	saved, err := s.repo.UpdateSale(ctx, updated)
	if err != nil {
		s.logger.Error("failed to update sale", zap.String("sale_id", id), zap.Error(err))
		return domain.Sale{}, err
	}

	s.logger.Info("sale updated", zap.String("sale_id", saved.ID), zap.String("branch", saved.Branch))
	return *saved, nil
}

// DeleteSale is CENTRAL-only, independent of branch match. The role check
// runs before the existence check, so a BRANCH caller probing an unknown id
// still gets a denial rather than a not-found.
func (s *Service) DeleteSale(ctx context.Context, actor domain.Actor, id string) error {
	if err := access.Authorize(actor, domain.Sale{}, access.ModeDelete); err != nil {
		return err
	}

	exists, err := s.repo.SaleExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}

	if err := s.repo.DeleteSale(ctx, id); err != nil {
		s.logger.Error("failed to delete sale", zap.String("sale_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("sale deleted", zap.String("sale_id", id), zap.String("by", actor.Username))
	return nil
}

// SummarizeSales aggregates the scoped window: total units, exact decimal
// revenue, top SKU and top branch by units. Results are cached per window.
func (s *Service) SummarizeSales(ctx context.Context, actor domain.Actor, filter domain.SaleFilter) (domain.SaleSummary, error) {
	branch := access.ResolveReadScope(actor, filter.Branch)
	from, to := normalizeRange(filter.From, filter.To)

	scope := branch
	if scope == "" {
		scope = "all"
	}
	key := fmt.Sprintf("summary:%s:%d:%d", scope, from.Unix(), to.Unix())

	return s.reports.Summarize(ctx, key, func(ctx context.Context) ([]domain.Sale, error) {
		return s.repo.FindSalesInRange(ctx, from, to, branch)
	})
}

// normalizeRange maps the optional calendar bounds onto the store's half-open
// instant window. A missing from is the epoch; a missing to is now. A present
// to date is inclusive for the caller: the upper bound becomes the start of
// the next UTC calendar day, exclusive in storage terms.
func normalizeRange(from *time.Time, to *time.Time) (time.Time, time.Time) {
	effectiveFrom := time.Unix(0, 0).UTC()
	if from != nil {
		effectiveFrom = startOfDay(*from)
	}

	effectiveTo := time.Now().UTC()
	if to != nil {
		effectiveTo = startOfDay(*to).AddDate(0, 0, 1)
	}

	return effectiveFrom, effectiveTo
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func normalizePaging(page int, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
