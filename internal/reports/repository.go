package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the report aggregations against Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SalesReport buckets sales by the given date_trunc unit (day, week, month).
func (r *Repository) SalesReport(ctx context.Context, unit string, from, to time.Time) ([]SalesReportRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date_trunc($1, sale_date) AS bucket,
COUNT(*), COALESCE(SUM(total), 0), COALESCE(SUM(refunded_total), 0)
FROM sales WHERE sale_date >= $2 AND sale_date < $3
GROUP BY bucket ORDER BY bucket`, unit, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SalesReportRow{}
	for rows.Next() {
		var row SalesReportRow
		if err := rows.Scan(&row.PeriodStart, &row.Orders, &row.Revenue, &row.Refunded); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ProfitReport aggregates revenue, cost of goods and expenses over a range.
func (r *Repository) ProfitReport(ctx context.Context, from, to time.Time) (*ProfitReport, error) {
	report := &ProfitReport{From: from, To: to}

	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0), COALESCE(SUM(refunded_total), 0)
FROM sales WHERE sale_date >= $1 AND sale_date < $2`, from, to).
		Scan(&report.Revenue, &report.Refunded)
	if err != nil {
		return nil, err
	}

	// Cost of goods valued at the current catalog unit cost, not the cost
	// at sale time; the catalog does not keep cost history.
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(si.qty * p.unit_cost), 0)
FROM sale_items si
JOIN sales s ON s.id = si.sale_id
JOIN products p ON p.id = si.product_id
WHERE s.sale_date >= $1 AND s.sale_date < $2`, from, to).
		Scan(&report.COGS)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM expenses WHERE expense_date >= $1 AND expense_date < $2`, from, to).
		Scan(&report.Expenses)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT d.day, COALESCE(s.revenue, 0), COALESCE(e.spent, 0)
FROM (SELECT generate_series(date_trunc('day', $1::timestamptz), date_trunc('day', $2::timestamptz - interval '1 second'), '1 day') AS day) d
LEFT JOIN (SELECT date_trunc('day', sale_date) AS day, SUM(total) AS revenue
  FROM sales WHERE sale_date >= $1 AND sale_date < $2 GROUP BY 1) s ON s.day = d.day
LEFT JOIN (SELECT date_trunc('day', expense_date) AS day, SUM(total) AS spent
  FROM expenses WHERE expense_date >= $1 AND expense_date < $2 GROUP BY 1) e ON e.day = d.day
ORDER BY d.day`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report.Days = []ProfitDay{}
	for rows.Next() {
		var day ProfitDay
		if err := rows.Scan(&day.Date, &day.Revenue, &day.Expenses); err != nil {
			return nil, err
		}
		report.Days = append(report.Days, day)
	}
	return report, rows.Err()
}

// TopProducts ranks products by quantity sold over a range.
func (r *Repository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx,
		`SELECT si.product_id, si.product_name, SUM(si.qty)::int, COALESCE(SUM(si.line_total), 0)
FROM sale_items si
JOIN sales s ON s.id = si.sale_id
WHERE s.sale_date >= $1 AND s.sale_date < $2
GROUP BY si.product_id, si.product_name
ORDER BY SUM(si.qty) DESC, si.product_name LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TopProduct{}
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.QtySold, &p.Revenue); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CustomerInsightRow is the raw aggregation before frequency is derived.
type CustomerInsightRow struct {
	Customer      string
	Orders        int
	TotalSpent    float64
	FirstPurchase time.Time
	LastPurchase  time.Time
}

// CustomerInsights groups sales by customer-name snapshot.
func (r *Repository) CustomerInsights(ctx context.Context) ([]CustomerInsightRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT COALESCE(customer_name, '(No customer)'), COUNT(*), COALESCE(SUM(total), 0),
MIN(sale_date), MAX(sale_date)
FROM sales GROUP BY 1 ORDER BY SUM(total) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CustomerInsightRow{}
	for rows.Next() {
		var row CustomerInsightRow
		if err := rows.Scan(&row.Customer, &row.Orders, &row.TotalSpent, &row.FirstPurchase, &row.LastPurchase); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LowStockRowRaw is a product at or below its threshold, before the restock
// suggestion is derived.
type LowStockRowRaw struct {
	ProductID int64
	Name      string
	Stock     int
	Threshold int
}

// LowStock lists active products at or below their low-stock threshold.
func (r *Repository) LowStock(ctx context.Context) ([]LowStockRowRaw, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, stock, low_stock_threshold
FROM products WHERE NOT archived AND stock <= low_stock_threshold
ORDER BY stock, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LowStockRowRaw{}
	for rows.Next() {
		var row LowStockRowRaw
		if err := rows.Scan(&row.ProductID, &row.Name, &row.Stock, &row.Threshold); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// InventorySummary computes stock-level totals over active products.
func (r *Repository) InventorySummary(ctx context.Context) (*InventorySummary, error) {
	var s InventorySummary
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(stock), 0),
COALESCE(SUM(stock * unit_cost), 0), COALESCE(SUM(stock * price), 0),
COUNT(*) FILTER (WHERE stock <= low_stock_threshold),
COUNT(*) FILTER (WHERE stock = 0)
FROM products WHERE NOT archived`).
		Scan(&s.Products, &s.StockUnits, &s.StockValue, &s.RetailValue, &s.LowStock, &s.OutOfStock)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
