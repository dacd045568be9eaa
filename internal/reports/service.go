package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// RepositoryPort exposes the aggregations the service relies on.
type RepositoryPort interface {
	SalesReport(ctx context.Context, unit string, from, to time.Time) ([]SalesReportRow, error)
	ProfitReport(ctx context.Context, from, to time.Time) (*ProfitReport, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error)
	CustomerInsights(ctx context.Context) ([]CustomerInsightRow, error)
	LowStock(ctx context.Context) ([]LowStockRowRaw, error)
	InventorySummary(ctx context.Context) (*InventorySummary, error)
}

// Service coordinates report execution with the cache layer. Concurrent
// requests for the same key collapse into one query via singleflight.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService wires a repository with a cache helper.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func normalizeUnit(period string) (string, error) {
	switch period {
	case PeriodDaily, "":
		return "day", nil
	case PeriodWeekly:
		return "week", nil
	case PeriodMonthly:
		return "month", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadPeriod, period)
	}
}

func dayToken(t time.Time) string {
	return t.Format("2006-01-02")
}

// Sales returns the bucketed sales report.
func (s *Service) Sales(ctx context.Context, period string, from, to time.Time) ([]SalesReportRow, error) {
	unit, err := normalizeUnit(period)
	if err != nil {
		return nil, err
	}
	var out []SalesReportRow
	err = s.cached(ctx, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.SalesReport(ctx, unit, from, to)
	}, "reports", "sales", unit, dayToken(from), dayToken(to))
	return out, err
}

// Profit returns the profit report with derived totals filled in.
func (s *Service) Profit(ctx context.Context, from, to time.Time) (*ProfitReport, error) {
	var out ProfitReport
	err := s.cached(ctx, &out, func(ctx context.Context) (interface{}, error) {
		report, err := s.repo.ProfitReport(ctx, from, to)
		if err != nil {
			return nil, err
		}
		report.NetRevenue = report.Revenue - report.Refunded
		report.GrossProfit = report.Revenue - report.COGS
		report.NetProfit = report.GrossProfit - report.Expenses
		return report, nil
	}, "reports", "profit", dayToken(from), dayToken(to))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TopProducts ranks products by quantity sold.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	var out []TopProduct
	err := s.cached(ctx, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.TopProducts(ctx, from, to, limit)
	}, "reports", "top_products", dayToken(from), dayToken(to), fmt.Sprintf("%d", limit))
	return out, err
}

// CustomerInsights summarizes buying behaviour per customer.
func (s *Service) CustomerInsights(ctx context.Context) ([]CustomerInsight, error) {
	var out []CustomerInsight
	err := s.cached(ctx, &out, func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.CustomerInsights(ctx)
		if err != nil {
			return nil, err
		}
		insights := make([]CustomerInsight, 0, len(rows))
		for _, row := range rows {
			insights = append(insights, buildInsight(row))
		}
		return insights, nil
	}, "reports", "customer_insights")
	return out, err
}

func buildInsight(row CustomerInsightRow) CustomerInsight {
	in := CustomerInsight{
		Customer:      row.Customer,
		Orders:        row.Orders,
		TotalSpent:    row.TotalSpent,
		FirstPurchase: row.FirstPurchase,
		LastPurchase:  row.LastPurchase,
	}
	if row.Orders > 0 {
		in.AvgOrderValue = row.TotalSpent / float64(row.Orders)
	}
	span := row.LastPurchase.Sub(row.FirstPurchase).Hours() / 24
	if span < 1 {
		span = 1
	}
	in.PurchaseFrequencyPerDay = float64(row.Orders) / span
	return in
}

// LowStock lists products needing restock with a suggested order quantity.
func (s *Service) LowStock(ctx context.Context) ([]LowStockRow, error) {
	var out []LowStockRow
	err := s.cached(ctx, &out, func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.LowStock(ctx)
		if err != nil {
			return nil, err
		}
		result := make([]LowStockRow, 0, len(rows))
		for _, row := range rows {
			result = append(result, LowStockRow{
				ProductID:        row.ProductID,
				Name:             row.Name,
				Stock:            row.Stock,
				Threshold:        row.Threshold,
				SuggestedRestock: SuggestedRestock(row.Stock, row.Threshold),
			})
		}
		return result, nil
	}, "reports", "low_stock")
	return out, err
}

// SuggestedRestock proposes an order quantity that brings stock up to a
// target of max(3*threshold, threshold+10, 10).
func SuggestedRestock(stock, threshold int) int {
	target := 3 * threshold
	if threshold+10 > target {
		target = threshold + 10
	}
	if target < 10 {
		target = 10
	}
	if suggested := target - stock; suggested > 0 {
		return suggested
	}
	return 0
}

// InventorySummary computes the stock-level overview.
func (s *Service) InventorySummary(ctx context.Context) (*InventorySummary, error) {
	var out InventorySummary
	err := s.cached(ctx, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.InventorySummary(ctx)
	}, "reports", "inventory_summary")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) cached(ctx context.Context, dest interface{}, loader func(context.Context) (interface{}, error), keyParts ...string) error {
	key, err := s.cache.BuildKey(ctx, keyParts...)
	if err != nil {
		return err
	}
	raw, err, _ := s.group.Do(key, func() (interface{}, error) {
		var payload json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &payload, loader); err != nil {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.(json.RawMessage), dest)
}
