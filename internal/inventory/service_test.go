package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProduct struct {
	name  string
	stock int
}

type mockRepository struct {
	products map[int64]*mockProduct
	log      []LogEntry
	txErr    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{products: map[int64]*mockProduct{}}
}

type mockTx struct {
	repo    *mockRepository
	staged  []LogEntry
	applied map[int64]int
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	tx := &mockTx{repo: m, applied: map[int64]int{}}
	if err := fn(ctx, tx); err != nil {
		// roll back staged stock changes
		for id, delta := range tx.applied {
			m.products[id].stock -= delta
		}
		return err
	}
	m.log = append(m.log, tx.staged...)
	return nil
}

func (m *mockRepository) History(ctx context.Context, productID int64, limit int) ([]LogEntry, error) {
	out := []LogEntry{}
	for i := len(m.log) - 1; i >= 0; i-- {
		if m.log[i].ProductID == productID {
			out = append(out, m.log[i])
		}
	}
	return out, nil
}

func (t *mockTx) IncrementStock(ctx context.Context, productID int64, qty int) (string, error) {
	p, ok := t.repo.products[productID]
	if !ok {
		return "", ErrProductNotFound
	}
	p.stock += qty
	t.applied[productID] += qty
	return p.name, nil
}

func (t *mockTx) DecrementStockGuarded(ctx context.Context, productID int64, qty int) (string, error) {
	p, ok := t.repo.products[productID]
	if !ok {
		return "", ErrProductNotFound
	}
	if p.stock < qty {
		return "", ErrInsufficientStock
	}
	p.stock -= qty
	t.applied[productID] -= qty
	return p.name, nil
}

func (t *mockTx) AppendLog(ctx context.Context, entry LogEntry) error {
	t.staged = append(t.staged, entry)
	return nil
}

func TestRestockIncrementsAndLogs(t *testing.T) {
	repo := newMockRepository()
	repo.products[1] = &mockProduct{name: "Rice 1kg", stock: 3}
	svc := NewService(repo, nil, nil)

	err := svc.Restock(context.Background(), 1, AdjustmentRequest{Qty: 10, Reason: "weekly delivery"})
	require.NoError(t, err)

	assert.Equal(t, 13, repo.products[1].stock)
	require.Len(t, repo.log, 1)
	assert.Equal(t, ChangeRestock, repo.log[0].ChangeType)
	assert.Equal(t, 10, repo.log[0].QtyChange)
	assert.Equal(t, "Rice 1kg", repo.log[0].ProductName)
}

func TestDecreaseStockGuardsAgainstNegative(t *testing.T) {
	repo := newMockRepository()
	repo.products[1] = &mockProduct{name: "Rice 1kg", stock: 5}
	svc := NewService(repo, nil, nil)

	err := svc.DecreaseStock(context.Background(), 1, AdjustmentRequest{Qty: 8, Reason: "spoiled"})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, repo.products[1].stock)
	assert.Empty(t, repo.log)

	err = svc.DecreaseStock(context.Background(), 1, AdjustmentRequest{Qty: 2, Reason: "spoiled"})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.products[1].stock)
	require.Len(t, repo.log, 1)
	assert.Equal(t, ChangeAdjustment, repo.log[0].ChangeType)
	assert.Equal(t, -2, repo.log[0].QtyChange)
}

func TestDecreaseStockUnknownProduct(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil)

	err := svc.DecreaseStock(context.Background(), 42, AdjustmentRequest{Qty: 1, Reason: "x"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestLedgerReconciliation(t *testing.T) {
	repo := newMockRepository()
	repo.products[1] = &mockProduct{name: "Sugar", stock: 0}
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.Restock(context.Background(), 1, AdjustmentRequest{Qty: 20, Reason: "initial"}))
	require.NoError(t, svc.DecreaseStock(context.Background(), 1, AdjustmentRequest{Qty: 4, Reason: "damage"}))
	require.NoError(t, svc.Restock(context.Background(), 1, AdjustmentRequest{Qty: 5, Reason: "top up"}))

	sum := 0
	for _, e := range repo.log {
		sum += e.QtyChange
	}
	assert.Equal(t, repo.products[1].stock, sum, "initial stock + ledger deltas must equal current stock")
}

func TestTransactionErrorPropagates(t *testing.T) {
	repo := newMockRepository()
	repo.txErr = errors.New("connection reset")
	svc := NewService(repo, nil, nil)

	err := svc.Restock(context.Background(), 1, AdjustmentRequest{Qty: 1, Reason: "x"})
	assert.EqualError(t, err, "connection reset")
}
