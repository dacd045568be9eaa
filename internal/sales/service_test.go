package sales

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elman-pos/elman/internal/customers"
	"github.com/elman-pos/elman/internal/inventory"
	"github.com/elman-pos/elman/internal/platform/httpx"
)

type storeProduct struct {
	name     string
	price    float64
	stock    int
	archived bool
}

// mockStore is an in-memory stand-in for the Postgres repository. WithTx
// snapshots state up front and restores it when the callback fails, and the
// mutex serializes transactions the way row locks do.
type mockStore struct {
	mu           sync.Mutex
	products     map[int64]*storeProduct
	salesByRef   map[string]*Sale
	refunds      []Refund
	ledger       []inventory.LogEntry
	nextSaleID   int64
	nextRefundID int64

	txErr       error
	dupInserts  int
	insertCalls int
	ledgerErrAt int
	ledgerCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		products:   map[int64]*storeProduct{},
		salesByRef: map[string]*Sale{},
	}
}

func copySale(s *Sale) *Sale {
	cp := *s
	cp.Items = append([]SaleItem(nil), s.Items...)
	return &cp
}

func (m *mockStore) snapshot() (map[int64]*storeProduct, map[string]*Sale, []Refund, []inventory.LogEntry, int64, int64) {
	products := map[int64]*storeProduct{}
	for id, p := range m.products {
		cp := *p
		products[id] = &cp
	}
	sales := map[string]*Sale{}
	for ref, s := range m.salesByRef {
		sales[ref] = copySale(s)
	}
	refunds := make([]Refund, len(m.refunds))
	for i, rf := range m.refunds {
		refunds[i] = rf
		refunds[i].Items = append([]SaleItem(nil), rf.Items...)
	}
	return products, sales, refunds, append([]inventory.LogEntry(nil), m.ledger...), m.nextSaleID, m.nextRefundID
}

func (m *mockStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.txErr != nil {
		return m.txErr
	}
	products, sales, refunds, ledger, nextSale, nextRefund := m.snapshot()
	if err := fn(ctx, &mockTx{store: m}); err != nil {
		m.products, m.salesByRef, m.refunds, m.ledger = products, sales, refunds, ledger
		m.nextSaleID, m.nextRefundID = nextSale, nextRefund
		return err
	}
	return nil
}

func (m *mockStore) GetByReceipt(ctx context.Context, receiptRef string) (*Sale, []Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale, ok := m.salesByRef[receiptRef]
	if !ok {
		return nil, nil, ErrSaleNotFound
	}
	refunds := []Refund{}
	for _, rf := range m.refunds {
		if rf.SaleID == sale.ID {
			refunds = append(refunds, rf)
		}
	}
	return copySale(sale), refunds, nil
}

func (m *mockStore) History(ctx context.Context, search string, limit int) ([]HistoryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := []HistoryRow{}
	for _, s := range m.salesByRef {
		rows = append(rows, HistoryRow{
			ReceiptRef:    s.ReceiptRef,
			Date:          s.SaleDate,
			Cashier:       s.Cashier,
			Customer:      s.CustomerName,
			Payment:       string(s.PaymentMethod),
			Total:         s.Total,
			Unpaid:        s.Unpaid,
			RefundedTotal: s.RefundedTotal,
			FullyRefunded: s.FullyRefunded,
		})
	}
	return rows, nil
}

type mockTx struct {
	store *mockStore
}

func (t *mockTx) GetProductForSale(ctx context.Context, productID int64) (*ProductSnapshot, error) {
	p, ok := t.store.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &ProductSnapshot{ID: productID, Name: p.name, Price: p.price, Stock: p.stock, Archived: p.archived}, nil
}

func (t *mockTx) InsertSale(ctx context.Context, s *Sale) (int64, error) {
	t.store.insertCalls++
	if t.store.dupInserts > 0 {
		t.store.dupInserts--
		return 0, ErrDuplicateReceiptRef
	}
	if _, exists := t.store.salesByRef[s.ReceiptRef]; exists {
		return 0, ErrDuplicateReceiptRef
	}
	t.store.nextSaleID++
	cp := copySale(s)
	cp.ID = t.store.nextSaleID
	t.store.salesByRef[s.ReceiptRef] = cp
	return cp.ID, nil
}

func (t *mockTx) DecrementStockGuarded(ctx context.Context, productID int64, qty int) (string, error) {
	p, ok := t.store.products[productID]
	if !ok {
		return "", ErrProductNotFound
	}
	if p.stock < qty {
		return "", ErrInsufficientStock
	}
	p.stock -= qty
	return p.name, nil
}

func (t *mockTx) IncrementStock(ctx context.Context, productID int64, qty int) (string, error) {
	p, ok := t.store.products[productID]
	if !ok {
		return "", ErrProductNotFound
	}
	p.stock += qty
	return p.name, nil
}

func (t *mockTx) AppendLedger(ctx context.Context, entry inventory.LogEntry) error {
	t.store.ledgerCalls++
	if t.store.ledgerErrAt != 0 && t.store.ledgerCalls == t.store.ledgerErrAt {
		return errors.New("ledger write failed")
	}
	t.store.ledger = append(t.store.ledger, entry)
	return nil
}

func (t *mockTx) GetSaleForUpdate(ctx context.Context, receiptRef string) (*Sale, error) {
	sale, ok := t.store.salesByRef[receiptRef]
	if !ok {
		return nil, ErrSaleNotFound
	}
	return copySale(sale), nil
}

func (t *mockTx) SumRefundedQuantities(ctx context.Context, saleID int64) (map[int64]int, error) {
	sums := map[int64]int{}
	for _, rf := range t.store.refunds {
		if rf.SaleID != saleID {
			continue
		}
		for _, it := range rf.Items {
			sums[it.ProductID] += it.Qty
		}
	}
	return sums, nil
}

func (t *mockTx) InsertRefund(ctx context.Context, rf *Refund) (int64, error) {
	t.store.nextRefundID++
	cp := *rf
	cp.ID = t.store.nextRefundID
	cp.Items = append([]SaleItem(nil), rf.Items...)
	t.store.refunds = append(t.store.refunds, cp)
	return cp.ID, nil
}

func (t *mockTx) UpdateSaleRefundTotals(ctx context.Context, saleID int64, refundedTotal float64, fullyRefunded bool) error {
	for _, s := range t.store.salesByRef {
		if s.ID == saleID {
			s.RefundedTotal = refundedTotal
			s.FullyRefunded = fullyRefunded
			return nil
		}
	}
	return ErrSaleNotFound
}

type mockCustomers map[int64]string

func (m mockCustomers) GetName(ctx context.Context, id int64) (string, error) {
	name, ok := m[id]
	if !ok {
		return "", customers.ErrNotFound
	}
	return name, nil
}

type mockMetrics struct {
	mu      sync.Mutex
	sales   map[string]int
	refunds int
}

func (m *mockMetrics) SaleCommitted(paymentMethod string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sales == nil {
		m.sales = map[string]int{}
	}
	m.sales[paymentMethod]++
}

func (m *mockMetrics) RefundCommitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds++
}

func newTestService(store *mockStore, cust mockCustomers) (*Service, *mockMetrics) {
	metrics := &mockMetrics{}
	svc := NewService(store, cust, nil, nil, metrics)
	return svc, metrics
}

func cartLine(productID int64, qty int) CreateSaleItem {
	return CreateSaleItem{ProductID: productID, Qty: qty}
}

func saleRequest(items ...CreateSaleItem) CreateSaleRequest {
	return CreateSaleRequest{Cashier: "amal", PaymentMethod: PaymentCash, Items: items}
}

func TestCreateSaleCommitsStockSaleAndLedgerTogether(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.5, stock: 10}
	store.products[2] = &storeProduct{name: "Sugar 1kg", price: 2.0, stock: 6}
	svc, metrics := newTestService(store, nil)

	req := saleRequest(cartLine(1, 2), cartLine(2, 3))
	req.Discount = 1.0
	res, err := svc.CreateSale(context.Background(), req)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^RCPT-\d{8}-[0-9A-F]{6}$`), res.ReceiptRef)
	assert.InDelta(t, 15.0, res.Subtotal, 1e-9)
	assert.InDelta(t, 14.0, res.Total, 1e-9)

	assert.Equal(t, 8, store.products[1].stock)
	assert.Equal(t, 3, store.products[2].stock)

	sale := store.salesByRef[res.ReceiptRef]
	require.NotNil(t, sale)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, "Rice 1kg", sale.Items[0].ProductName)
	assert.InDelta(t, 4.5, sale.Items[0].UnitPrice, 1e-9)

	require.Len(t, store.ledger, 2)
	for _, e := range store.ledger {
		assert.Equal(t, inventory.ChangeSale, e.ChangeType)
		assert.Contains(t, e.Reason, res.ReceiptRef)
	}
	assert.Equal(t, -2, store.ledger[0].QtyChange)
	assert.Equal(t, -3, store.ledger[1].QtyChange)

	assert.Equal(t, 1, metrics.sales["Cash"])
}

func TestCreateSaleInsufficientStockLeavesNothingBehind(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.5, stock: 3}
	svc, _ := newTestService(store, nil)

	_, err := svc.CreateSale(context.Background(), saleRequest(cartLine(1, 5)))
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Insufficient stock for Rice 1kg. Available: 3")

	assert.Equal(t, 3, store.products[1].stock)
	assert.Empty(t, store.salesByRef)
	assert.Empty(t, store.ledger)
}

func TestCreateSaleRejectsArchivedAndUnknownProducts(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Old Lamp", price: 9.0, stock: 4, archived: true}
	svc, _ := newTestService(store, nil)

	_, err := svc.CreateSale(context.Background(), saleRequest(cartLine(1, 1)))
	assert.ErrorIs(t, err, ErrProductArchived)

	_, err = svc.CreateSale(context.Background(), saleRequest(cartLine(99, 1)))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateSaleDiscountFloorsAtZero(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Tea", price: 2.0, stock: 10}
	svc, _ := newTestService(store, nil)

	req := saleRequest(cartLine(1, 1))
	req.Discount = 5.0
	res, err := svc.CreateSale(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Total, 1e-9)
	assert.InDelta(t, 2.0, res.Subtotal, 1e-9)
}

func TestCreateSaleRoundsFinalTotal(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Oil 1L", price: 2.5, stock: 10}
	svc, _ := newTestService(store, nil)

	req := saleRequest(cartLine(1, 3))
	req.Discount = 0.004
	res, err := svc.CreateSale(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, res.Total, 1e-9)
}

func TestCreateSalePriceOverrideIsSnapshotted(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Flour", price: 3.0, stock: 10}
	svc, _ := newTestService(store, nil)

	override := 2.25
	req := saleRequest(CreateSaleItem{ProductID: 1, Qty: 2, UnitPrice: &override})
	res, err := svc.CreateSale(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, res.Total, 1e-9)

	sale := store.salesByRef[res.ReceiptRef]
	assert.InDelta(t, 2.25, sale.Items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 3.0, store.products[1].price, 1e-9, "catalog price stays untouched")
}

func TestCreateSaleResolvesCustomerName(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Milk", price: 1.0, stock: 5}
	svc, _ := newTestService(store, mockCustomers{7: "Amina Warsame"})

	id := int64(7)
	req := saleRequest(cartLine(1, 1))
	req.CustomerID = &id
	res, err := svc.CreateSale(context.Background(), req)
	require.NoError(t, err)

	sale := store.salesByRef[res.ReceiptRef]
	require.NotNil(t, sale.CustomerName)
	assert.Equal(t, "Amina Warsame", *sale.CustomerName)

	missing := int64(99)
	req.CustomerID = &missing
	_, err = svc.CreateSale(context.Background(), req)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestCreateSaleRollsBackOnLedgerFailure(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	store.products[2] = &storeProduct{name: "Sugar 1kg", price: 2.0, stock: 10}
	store.ledgerErrAt = 2
	svc, _ := newTestService(store, nil)

	_, err := svc.CreateSale(context.Background(), saleRequest(cartLine(1, 2), cartLine(2, 2)))
	require.Error(t, err)

	assert.Equal(t, 10, store.products[1].stock)
	assert.Equal(t, 10, store.products[2].stock)
	assert.Empty(t, store.salesByRef)
	assert.Empty(t, store.ledger)
}

func TestCreateSaleRetriesReceiptCollision(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	store.dupInserts = 1
	svc, _ := newTestService(store, nil)

	res, err := svc.CreateSale(context.Background(), saleRequest(cartLine(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 2, store.insertCalls)
	assert.NotNil(t, store.salesByRef[res.ReceiptRef])
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	svc, _ := newTestService(store, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateSale(context.Background(), saleRequest(cartLine(1, 6)))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 4, store.products[1].stock)
}

func sellForRefundTests(t *testing.T, svc *Service, qty int) string {
	t.Helper()
	res, err := svc.CreateSale(context.Background(), saleRequest(cartLine(1, qty)))
	require.NoError(t, err)
	return res.ReceiptRef
}

func refundRequest(items ...RefundItem) RefundRequest {
	return RefundRequest{Cashier: "amal", Reason: "customer return", Items: items}
}

func TestRefundPartialThenRemainderThenRejected(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	svc, metrics := newTestService(store, nil)
	ref := sellForRefundTests(t, svc, 5)

	res, err := svc.RefundSale(context.Background(), ref, refundRequest(RefundItem{ProductID: 1, Qty: 2}))
	require.NoError(t, err)
	assert.InDelta(t, 8.0, res.TotalRefund, 1e-9)
	assert.InDelta(t, 8.0, res.RefundedTotal, 1e-9)
	assert.False(t, res.FullyRefunded)
	assert.Equal(t, 7, store.products[1].stock)

	res, err = svc.RefundSale(context.Background(), ref, refundRequest(RefundItem{ProductID: 1, Qty: 3}))
	require.NoError(t, err)
	assert.InDelta(t, 20.0, res.RefundedTotal, 1e-9)
	assert.True(t, res.FullyRefunded)
	assert.Equal(t, 10, store.products[1].stock)

	_, err = svc.RefundSale(context.Background(), ref, refundRequest(RefundItem{ProductID: 1, Qty: 1}))
	require.ErrorIs(t, err, ErrRefundExceedsAvailable)
	assert.Contains(t, err.Error(), "Refund qty too high for Rice 1kg. Max refundable: 0")
	assert.Equal(t, 10, store.products[1].stock, "rejected refund must not touch stock")
	assert.Equal(t, 2, metrics.refunds)
}

func TestRefundUnknownReceiptAndForeignItem(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	svc, _ := newTestService(store, nil)
	ref := sellForRefundTests(t, svc, 2)

	_, err := svc.RefundSale(context.Background(), "RCPT-20260101-ABCDEF", refundRequest(RefundItem{ProductID: 1, Qty: 1}))
	assert.ErrorIs(t, err, ErrSaleNotFound)

	_, err = svc.RefundSale(context.Background(), ref, refundRequest(RefundItem{ProductID: 42, Qty: 1}))
	assert.ErrorIs(t, err, ErrItemNotOnSale)
}

func TestRefundUsesSalePriceNotCurrentCatalogPrice(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	svc, _ := newTestService(store, nil)
	ref := sellForRefundTests(t, svc, 2)

	store.products[1].price = 9.99

	res, err := svc.RefundSale(context.Background(), ref, refundRequest(RefundItem{ProductID: 1, Qty: 2}))
	require.NoError(t, err)
	assert.InDelta(t, 8.0, res.TotalRefund, 1e-9)
}

func TestRefundMergesDuplicateRequestLines(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	svc, _ := newTestService(store, nil)
	ref := sellForRefundTests(t, svc, 5)

	_, err := svc.RefundSale(context.Background(), ref,
		refundRequest(RefundItem{ProductID: 1, Qty: 3}, RefundItem{ProductID: 1, Qty: 3}))
	require.ErrorIs(t, err, ErrRefundExceedsAvailable)
	assert.Equal(t, 5, store.products[1].stock)
}

func TestFullRefundWithDiscountMarksFullyRefunded(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	svc, _ := newTestService(store, nil)

	req := saleRequest(cartLine(1, 5))
	req.Discount = 5.0
	res, err := svc.CreateSale(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, res.Total, 1e-9)

	rres, err := svc.RefundSale(context.Background(), res.ReceiptRef, refundRequest(RefundItem{ProductID: 1, Qty: 5}))
	require.NoError(t, err)
	assert.InDelta(t, 20.0, rres.TotalRefund, 1e-9)
	assert.True(t, rres.FullyRefunded, "refunded_total above total counts as fully refunded")
}

func TestConcurrentRefundsNeverExceedSoldQuantity(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	svc, _ := newTestService(store, nil)
	ref := sellForRefundTests(t, svc, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RefundSale(context.Background(), ref, refundRequest(RefundItem{ProductID: 1, Qty: 3}))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrRefundExceedsAvailable)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 8, store.products[1].stock)
}

func TestLedgerReconcilesAcrossSaleAndRefund(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	svc, _ := newTestService(store, nil)

	ref := sellForRefundTests(t, svc, 4)
	_, err := svc.RefundSale(context.Background(), ref, refundRequest(RefundItem{ProductID: 1, Qty: 2}))
	require.NoError(t, err)

	sum := 0
	for _, e := range store.ledger {
		sum += e.QtyChange
	}
	assert.Equal(t, store.products[1].stock, 10+sum, "initial stock plus ledger deltas equals current stock")
	assert.Equal(t, 8, store.products[1].stock)
}

func TestRefundLedgerReasonCarriesCallerReason(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	svc, _ := newTestService(store, nil)
	ref := sellForRefundTests(t, svc, 3)

	req := refundRequest(RefundItem{ProductID: 1, Qty: 1})
	req.Reason = "damaged"
	_, err := svc.RefundSale(context.Background(), ref, req)
	require.NoError(t, err)

	var entry inventory.LogEntry
	for _, e := range store.ledger {
		if e.ChangeType == inventory.ChangeRefund {
			entry = e
		}
	}
	assert.Equal(t, "damaged ("+ref+")", entry.Reason)

	req.Reason = ""
	_, err = svc.RefundSale(context.Background(), ref, req)
	require.NoError(t, err)
	last := store.ledger[len(store.ledger)-1]
	assert.Equal(t, "Refund ("+ref+")", last.Reason)
}

func TestGetByReceiptReadsBackSaleAndRefunds(t *testing.T) {
	store := newMockStore()
	store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
	svc, _ := newTestService(store, nil)
	ref := sellForRefundTests(t, svc, 3)

	_, err := svc.RefundSale(context.Background(), ref, refundRequest(RefundItem{ProductID: 1, Qty: 1}))
	require.NoError(t, err)

	sale, refunds, err := svc.GetByReceipt(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, ref, sale.ReceiptRef)
	require.Len(t, sale.Items, 1)
	assert.InDelta(t, 4.0, sale.RefundedTotal, 1e-9)
	require.Len(t, refunds, 1)
	assert.InDelta(t, 4.0, refunds[0].TotalRefund, 1e-9)

	_, _, err = svc.GetByReceipt(context.Background(), "RCPT-20260101-000000")
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestTransactionErrorSurfaces(t *testing.T) {
	store := newMockStore()
	store.txErr = fmt.Errorf("connection reset")
	svc, _ := newTestService(store, nil)

	_, err := svc.CreateSale(context.Background(), saleRequest(cartLine(1, 1)))
	assert.EqualError(t, err, "connection reset")
}

func TestRetryableStoreFailuresMapToTransient(t *testing.T) {
	cases := map[string]error{
		"serialization abort": &pgconn.PgError{Code: "40001"},
		"deadlock":            &pgconn.PgError{Code: "40P01"},
		"deadline expired":    fmt.Errorf("tx: %w", context.DeadlineExceeded),
	}
	for name, txErr := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMockStore()
			store.products[1] = &storeProduct{name: "Rice 1kg", price: 4.0, stock: 10}
			store.txErr = txErr
			svc, _ := newTestService(store, nil)

			_, err := svc.CreateSale(context.Background(), saleRequest(cartLine(1, 1)))
			assert.ErrorIs(t, err, httpx.ErrTransient)
		})
	}
}
