package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	salesCalls  int
	profitCalls int
	lowStock    []LowStockRowRaw
	insights    []CustomerInsightRow
}

func (m *mockRepository) SalesReport(ctx context.Context, unit string, from, to time.Time) ([]SalesReportRow, error) {
	m.salesCalls++
	return []SalesReportRow{{PeriodStart: from, Orders: 3, Revenue: 42.5}}, nil
}

func (m *mockRepository) ProfitReport(ctx context.Context, from, to time.Time) (*ProfitReport, error) {
	m.profitCalls++
	return &ProfitReport{From: from, To: to, Revenue: 100, Refunded: 10, COGS: 40, Expenses: 25}, nil
}

func (m *mockRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	return []TopProduct{{ProductID: 1, Name: "Rice 1kg", QtySold: 12, Revenue: 54}}, nil
}

func (m *mockRepository) CustomerInsights(ctx context.Context) ([]CustomerInsightRow, error) {
	return m.insights, nil
}

func (m *mockRepository) LowStock(ctx context.Context) ([]LowStockRowRaw, error) {
	return m.lowStock, nil
}

func (m *mockRepository) InventorySummary(ctx context.Context) (*InventorySummary, error) {
	return &InventorySummary{Products: 5, StockUnits: 40}, nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestSuggestedRestock(t *testing.T) {
	cases := []struct {
		name      string
		stock     int
		threshold int
		want      int
	}{
		{"zero threshold uses minimum target", 2, 0, 8},
		{"small threshold uses plus-ten target", 3, 4, 11},
		{"large threshold uses triple target", 5, 20, 55},
		{"already stocked above target", 80, 20, 0},
		{"exactly at target", 60, 20, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SuggestedRestock(tc.stock, tc.threshold))
		})
	}
}

func TestNormalizeUnit(t *testing.T) {
	for period, want := range map[string]string{"": "day", PeriodDaily: "day", PeriodWeekly: "week", PeriodMonthly: "month"} {
		unit, err := normalizeUnit(period)
		require.NoError(t, err)
		assert.Equal(t, want, unit)
	}
	_, err := normalizeUnit("hourly")
	assert.ErrorIs(t, err, ErrBadPeriod)
}

func TestProfitDerivesTotals(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, newTestCache(t))

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	report, err := svc.Profit(context.Background(), from, to)
	require.NoError(t, err)

	assert.InDelta(t, 90.0, report.NetRevenue, 1e-9)
	assert.InDelta(t, 60.0, report.GrossProfit, 1e-9)
	assert.InDelta(t, 35.0, report.NetProfit, 1e-9)
}

func TestSalesReportIsCachedUntilBump(t *testing.T) {
	repo := &mockRepository{}
	cache := newTestCache(t)
	svc := NewService(repo, cache)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	_, err := svc.Sales(context.Background(), PeriodDaily, from, to)
	require.NoError(t, err)
	_, err = svc.Sales(context.Background(), PeriodDaily, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.salesCalls, "second read should hit the cache")

	require.NoError(t, cache.Bump(context.Background()))

	_, err = svc.Sales(context.Background(), PeriodDaily, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.salesCalls, "bump invalidates cached reports")
}

func TestLowStockDerivesSuggestions(t *testing.T) {
	repo := &mockRepository{lowStock: []LowStockRowRaw{
		{ProductID: 1, Name: "Rice 1kg", Stock: 2, Threshold: 5},
		{ProductID: 2, Name: "Sugar 1kg", Stock: 0, Threshold: 0},
	}}
	svc := NewService(repo, NewCache(nil, 0))

	rows, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 13, rows[0].SuggestedRestock)
	assert.Equal(t, 10, rows[1].SuggestedRestock)
}

func TestCustomerInsightFrequency(t *testing.T) {
	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	repo := &mockRepository{insights: []CustomerInsightRow{
		{Customer: "Amina Warsame", Orders: 10, TotalSpent: 250, FirstPurchase: first, LastPurchase: first.AddDate(0, 0, 5)},
		{Customer: "(No customer)", Orders: 1, TotalSpent: 4, FirstPurchase: first, LastPurchase: first},
	}}
	svc := NewService(repo, NewCache(nil, 0))

	rows, err := svc.CustomerInsights(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.InDelta(t, 25.0, rows[0].AvgOrderValue, 1e-9)
	assert.InDelta(t, 2.0, rows[0].PurchaseFrequencyPerDay, 1e-9)

	// single purchase spans less than a day; frequency clamps to per-day
	assert.InDelta(t, 1.0, rows[1].PurchaseFrequencyPerDay, 1e-9)
	assert.Equal(t, "(No customer)", rows[1].Customer)
}
