package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elman-pos/elman/internal/reports"
)

type fakeReports struct {
	lowStock     []reports.LowStockRow
	lowStockErr  error
	salesCalls   int
	summaryCalls int
}

func (f *fakeReports) LowStock(ctx context.Context) ([]reports.LowStockRow, error) {
	return f.lowStock, f.lowStockErr
}

func (f *fakeReports) InventorySummary(ctx context.Context) (*reports.InventorySummary, error) {
	f.summaryCalls++
	return &reports.InventorySummary{}, nil
}

func (f *fakeReports) Sales(ctx context.Context, period string, from, to time.Time) ([]reports.SalesReportRow, error) {
	f.salesCalls++
	return nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLowStockScanHandlerFlagsProducts(t *testing.T) {
	svc := &fakeReports{lowStock: []reports.LowStockRow{
		{ProductID: 1, Name: "Rice 1kg", Stock: 2, Threshold: 10, SuggestedRestock: 28},
	}}
	task, err := NewLowStockScanTask()
	require.NoError(t, err)

	handler := NewLowStockScanHandler(svc, discardLogger())
	assert.NoError(t, handler(context.Background(), task))
}

func TestLowStockScanHandlerPropagatesError(t *testing.T) {
	svc := &fakeReports{lowStockErr: errors.New("db down")}
	task, err := NewLowStockScanTask()
	require.NoError(t, err)

	handler := NewLowStockScanHandler(svc, discardLogger())
	assert.Error(t, handler(context.Background(), task))
}

func TestReportsWarmupHandlerPrimesCache(t *testing.T) {
	svc := &fakeReports{}
	task, err := NewReportsWarmupTask()
	require.NoError(t, err)

	handler := NewReportsWarmupHandler(svc, discardLogger())
	require.NoError(t, handler(context.Background(), task))
	assert.Equal(t, 1, svc.salesCalls)
	assert.Equal(t, 1, svc.summaryCalls)
}
