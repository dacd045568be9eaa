package reports

import (
	"errors"
	"time"
)

// Period granularities accepted by the sales report.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// ErrBadPeriod indicates an unknown report granularity.
var ErrBadPeriod = errors.New("unknown report period")

// SalesReportRow is one bucket of the sales report.
type SalesReportRow struct {
	PeriodStart time.Time `json:"period_start"`
	Orders      int       `json:"orders"`
	Revenue     float64   `json:"revenue"`
	Refunded    float64   `json:"refunded"`
}

// ProfitDay is one day of the profit series.
type ProfitDay struct {
	Date     time.Time `json:"date"`
	Revenue  float64   `json:"revenue"`
	Expenses float64   `json:"expenses"`
}

// ProfitReport aggregates revenue, cost of goods and expenses over a range.
// Cost of goods is valued at the current catalog unit cost.
type ProfitReport struct {
	From        time.Time   `json:"from"`
	To          time.Time   `json:"to"`
	Revenue     float64     `json:"revenue"`
	Refunded    float64     `json:"refunded"`
	NetRevenue  float64     `json:"net_revenue"`
	COGS        float64     `json:"cogs"`
	GrossProfit float64     `json:"gross_profit"`
	Expenses    float64     `json:"expenses"`
	NetProfit   float64     `json:"net_profit"`
	Days        []ProfitDay `json:"days"`
}

// TopProduct is one row of the top-products report.
type TopProduct struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	QtySold   int     `json:"qty_sold"`
	Revenue   float64 `json:"revenue"`
}

// CustomerInsight summarizes a customer's buying behaviour. Sales without a
// customer are grouped under "(No customer)".
type CustomerInsight struct {
	Customer               string    `json:"customer"`
	Orders                 int       `json:"orders"`
	TotalSpent             float64   `json:"total_spent"`
	AvgOrderValue          float64   `json:"avg_order_value"`
	FirstPurchase          time.Time `json:"first_purchase"`
	LastPurchase           time.Time `json:"last_purchase"`
	PurchaseFrequencyPerDay float64   `json:"purchase_frequency_per_day"`
}

// LowStockRow is one product at or below its low-stock threshold.
type LowStockRow struct {
	ProductID        int64  `json:"product_id"`
	Name             string `json:"name"`
	Stock            int    `json:"stock"`
	Threshold        int    `json:"low_stock_threshold"`
	SuggestedRestock int    `json:"suggested_restock"`
}

// InventorySummary is the stock-level overview report.
type InventorySummary struct {
	Products    int     `json:"products"`
	StockUnits  int     `json:"stock_units"`
	StockValue  float64 `json:"stock_value"`
	RetailValue float64 `json:"retail_value"`
	LowStock    int     `json:"low_stock"`
	OutOfStock  int     `json:"out_of_stock"`
}
