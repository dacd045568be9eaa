package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/elman-pos/elman/internal/reports"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan scans for products at or below their threshold.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskReportsWarmup precomputes the dashboard reports into the cache.
	TaskReportsWarmup = "reports:warmup"
)

// ReportReader is the slice of the reports service the jobs need.
type ReportReader interface {
	LowStock(ctx context.Context) ([]reports.LowStockRow, error)
	InventorySummary(ctx context.Context) (*reports.InventorySummary, error)
	Sales(ctx context.Context, period string, from, to time.Time) ([]reports.SalesReportRow, error)
}

// NewLowStockScanTask constructs the scan task.
func NewLowStockScanTask() (*asynq.Task, error) {
	data, err := json.Marshal(struct{}{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}

// NewReportsWarmupTask constructs the warmup task.
func NewReportsWarmupTask() (*asynq.Task, error) {
	data, err := json.Marshal(struct{}{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}

// NewLowStockScanHandler reports every product at or below its low-stock
// threshold with a suggested restock quantity.
func NewLowStockScanHandler(svc ReportReader, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		rows, err := svc.LowStock(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			logger.Warn("low stock",
				slog.Int64("product_id", row.ProductID),
				slog.String("name", row.Name),
				slog.Int("stock", row.Stock),
				slog.Int("threshold", row.Threshold),
				slog.Int("suggested_restock", row.SuggestedRestock))
		}
		logger.Info("low stock scan complete", slog.Int("flagged", len(rows)))
		return nil
	}
}

// NewReportsWarmupHandler precomputes the reports the dashboard loads first,
// so the morning's opening screen hits a warm cache.
func NewReportsWarmupHandler(svc ReportReader, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		now := time.Now()
		from := now.AddDate(0, 0, -7)
		if _, err := svc.Sales(ctx, reports.PeriodDaily, from, now); err != nil {
			return err
		}
		if _, err := svc.InventorySummary(ctx); err != nil {
			return err
		}
		logger.Info("reports warmup complete")
		return nil
	}
}
