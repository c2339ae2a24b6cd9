// Package report computes window aggregates over sale records. The records
// arrive already filtered by date range and branch scope; no access control
// happens here.
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ventas/backend/internal/cache"
	"ventas/backend/internal/domain"
)

// Aggregate sums units and revenue and picks the top SKU and branch by total
// units. Revenue is the exact decimal sum of per-record units × price, never
// a float accumulation. Ties for a top slot keep the first-seen key: a later
// key only takes over when its total is strictly greater, so repeated calls
// on the same input order return the same winner.
func Aggregate(sales []domain.Sale) domain.SaleSummary {
	summary := domain.SaleSummary{TotalRevenue: decimal.Zero}
	if len(sales) == 0 {
		return summary
	}

	unitsBySKU := make(map[string]int64, len(sales))
	unitsByBranch := make(map[string]int64, len(sales))
	skuOrder := make([]string, 0, len(sales))
	branchOrder := make([]string, 0, len(sales))

	for _, sale := range sales {
		units := int64(sale.Units)
		summary.TotalUnits += units
		summary.TotalRevenue = summary.TotalRevenue.Add(
			sale.Price.Mul(decimal.NewFromInt(units)))

		if _, seen := unitsBySKU[sale.SKU]; !seen {
			skuOrder = append(skuOrder, sale.SKU)
		}
		unitsBySKU[sale.SKU] += units

		if _, seen := unitsByBranch[sale.Branch]; !seen {
			branchOrder = append(branchOrder, sale.Branch)
		}
		unitsByBranch[sale.Branch] += units
	}

	summary.TopSKU = topKey(skuOrder, unitsBySKU)
	summary.TopBranch = topKey(branchOrder, unitsByBranch)
	return summary
}

func topKey(order []string, totals map[string]int64) *string {
	if len(order) == 0 {
		return nil
	}
	best := order[0]
	for _, key := range order[1:] {
		if totals[key] > totals[best] {
			best = key
		}
	}
	return &best
}

// Engine wraps Aggregate with a shared summary cache so repeated reporting
// calls on the same window skip the store round trip. Cache failures degrade
// to a fresh computation and are only logged.
type Engine struct {
	cache  cache.SummaryCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewEngine(summaryCache cache.SummaryCache, ttl time.Duration, logger *zap.Logger) *Engine {
	if summaryCache == nil {
		summaryCache = cache.NoopSummaryCache{}
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cache: summaryCache, ttl: ttl, logger: logger}
}

// Summarize returns the cached summary for key when present, otherwise
// fetches the record window, aggregates it, and stores the result.
func (e *Engine) Summarize(ctx context.Context, key string, fetch func(context.Context) ([]domain.Sale, error)) (domain.SaleSummary, error) {
	if cached, ok, err := e.cache.Get(ctx, key); err != nil {
		e.logger.Warn("summary cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return *cached, nil
	}

	sales, err := fetch(ctx)
	if err != nil {
		return domain.SaleSummary{}, err
	}

	summary := Aggregate(sales)
	if err := e.cache.Set(ctx, key, &summary, e.ttl); err != nil {
		e.logger.Warn("summary cache write failed", zap.String("key", key), zap.Error(err))
	}
	return summary, nil
}
