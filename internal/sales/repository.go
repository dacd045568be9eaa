package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elman-pos/elman/internal/inventory"
	"github.com/elman-pos/elman/internal/platform/db"
)

// Repository persists sales and refunds.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations of one sale or refund commit. All of
// them run on the same transaction; an error anywhere rolls everything back.
type TxRepository interface {
	// GetProductForSale reads the product fields needed to price a cart line.
	GetProductForSale(ctx context.Context, productID int64) (*ProductSnapshot, error)
	// InsertSale writes the sale header and its items, returning the sale id.
	// A receipt_ref collision yields ErrDuplicateReceiptRef.
	InsertSale(ctx context.Context, s *Sale) (int64, error)
	// DecrementStockGuarded subtracts qty iff stock >= qty in one conditional
	// update and returns the product name.
	DecrementStockGuarded(ctx context.Context, productID int64, qty int) (string, error)
	// IncrementStock adds qty back to stock and returns the product name.
	IncrementStock(ctx context.Context, productID int64, qty int) (string, error)
	// AppendLedger writes one inventory ledger row.
	AppendLedger(ctx context.Context, entry inventory.LogEntry) error
	// GetSaleForUpdate loads a sale with its items and locks the sale row,
	// serializing concurrent refunds against the same receipt.
	GetSaleForUpdate(ctx context.Context, receiptRef string) (*Sale, error)
	// SumRefundedQuantities returns, per product, the quantity already
	// refunded across all prior refunds of the sale.
	SumRefundedQuantities(ctx context.Context, saleID int64) (map[int64]int, error)
	// InsertRefund writes the refund record and its items, returning the id.
	InsertRefund(ctx context.Context, rf *Refund) (int64, error)
	// UpdateSaleRefundTotals sets the sale's cumulative refund state.
	UpdateSaleRefundTotals(ctx context.Context, saleID int64, refundedTotal float64, fullyRefunded bool) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx runs the callback inside a read-committed transaction. Correctness
// rests on the conditional stock decrement and the FOR UPDATE sale-row lock,
// not on snapshot isolation, so concurrent carts contend on row locks instead
// of aborting with serialization failures.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxAt(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const saleColumns = `id, receipt_ref, sale_date, cashier, customer_name, customer_id,
payment_method, subtotal, discount, total, unpaid, refunded_total, fully_refunded`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.ReceiptRef, &s.SaleDate, &s.Cashier, &s.CustomerName, &s.CustomerID,
		&s.PaymentMethod, &s.Subtotal, &s.Discount, &s.Total, &s.Unpaid, &s.RefundedTotal, &s.FullyRefunded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByReceipt loads one sale with its items, its refunds included.
func (r *Repository) GetByReceipt(ctx context.Context, receiptRef string) (*Sale, []Refund, error) {
	sale, err := scanSale(r.pool.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE receipt_ref=$1`, receiptRef))
	if err != nil {
		return nil, nil, err
	}
	sale.Items, err = r.saleItems(ctx, sale.ID)
	if err != nil {
		return nil, nil, err
	}
	refunds, err := r.refundsForSale(ctx, sale.ID, sale.ReceiptRef)
	if err != nil {
		return nil, nil, err
	}
	return sale, refunds, nil
}

func (r *Repository) saleItems(ctx context.Context, saleID int64) ([]SaleItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, product_name, qty, unit_price, line_total
FROM sale_items WHERE sale_id=$1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *Repository) refundsForSale(ctx context.Context, saleID int64, receiptRef string) ([]Refund, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, refund_date, cashier, reason, total_refund
FROM refunds WHERE sale_id=$1 ORDER BY refund_date, id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refunds := []Refund{}
	for rows.Next() {
		rf := Refund{SaleID: saleID, ReceiptRef: receiptRef}
		if err := rows.Scan(&rf.ID, &rf.RefundDate, &rf.Cashier, &rf.Reason, &rf.TotalRefund); err != nil {
			return nil, err
		}
		refunds = append(refunds, rf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range refunds {
		itemRows, err := r.pool.Query(ctx,
			`SELECT product_id, product_name, qty, unit_price, line_total
FROM refund_items WHERE refund_id=$1 ORDER BY id`, refunds[i].ID)
		if err != nil {
			return nil, err
		}
		refunds[i].Items, err = collectItems(itemRows)
		itemRows.Close()
		if err != nil {
			return nil, err
		}
	}
	return refunds, nil
}

func collectItems(rows pgx.Rows) ([]SaleItem, error) {
	items := []SaleItem{}
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Qty, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// History lists recent sales, newest first, optionally filtered by a search
// term matched against the receipt, cashier and customer name.
func (r *Repository) History(ctx context.Context, search string, limit int) ([]HistoryRow, error) {
	if limit <= 0 {
		limit = 200
	}
	q := `SELECT receipt_ref, sale_date, cashier, customer_name, payment_method,
total, unpaid, refunded_total, fully_refunded FROM sales`
	args := []any{}
	if search != "" {
		q += ` WHERE receipt_ref ILIKE $1 OR cashier ILIKE $1 OR customer_name ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	q += fmt.Sprintf(` ORDER BY sale_date DESC, id DESC LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []HistoryRow{}
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.ReceiptRef, &h.Date, &h.Cashier, &h.Customer, &h.Payment,
			&h.Total, &h.Unpaid, &h.RefundedTotal, &h.FullyRefunded); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *txRepository) GetProductForSale(ctx context.Context, productID int64) (*ProductSnapshot, error) {
	var p ProductSnapshot
	err := r.tx.QueryRow(ctx,
		`SELECT id, name, price, stock, archived FROM products WHERE id=$1`, productID).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Archived)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *txRepository) InsertSale(ctx context.Context, s *Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO sales (receipt_ref, sale_date, cashier, customer_name, customer_id,
payment_method, subtotal, discount, total, unpaid, refunded_total, fully_refunded)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,0,FALSE) RETURNING id`,
		s.ReceiptRef, s.SaleDate, s.Cashier, s.CustomerName, s.CustomerID,
		string(s.PaymentMethod), s.Subtotal, s.Discount, s.Total, s.Unpaid).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "sales_receipt_ref_key") {
			return 0, ErrDuplicateReceiptRef
		}
		return 0, err
	}
	for _, it := range s.Items {
		_, err := r.tx.Exec(ctx,
			`INSERT INTO sale_items (sale_id, product_id, product_name, qty, unit_price, line_total)
VALUES ($1,$2,$3,$4,$5,$6)`,
			id, it.ProductID, it.ProductName, it.Qty, it.UnitPrice, it.LineTotal)
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *txRepository) DecrementStockGuarded(ctx context.Context, productID int64, qty int) (string, error) {
	var name string
	err := r.tx.QueryRow(ctx,
		`UPDATE products SET stock = stock - $1 WHERE id=$2 AND stock >= $1 RETURNING name`,
		qty, productID).Scan(&name)
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	var exists bool
	if err := r.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists); err != nil {
		return "", err
	}
	if !exists {
		return "", ErrProductNotFound
	}
	return "", ErrInsufficientStock
}

func (r *txRepository) IncrementStock(ctx context.Context, productID int64, qty int) (string, error) {
	var name string
	err := r.tx.QueryRow(ctx,
		`UPDATE products SET stock = stock + $1 WHERE id=$2 RETURNING name`,
		qty, productID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProductNotFound
		}
		return "", err
	}
	return name, nil
}

func (r *txRepository) AppendLedger(ctx context.Context, entry inventory.LogEntry) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO inventory_log (product_id, product_name, change_type, qty_change, reason, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())`,
		entry.ProductID, entry.ProductName, string(entry.ChangeType), entry.QtyChange, entry.Reason)
	return err
}

func (r *txRepository) GetSaleForUpdate(ctx context.Context, receiptRef string) (*Sale, error) {
	sale, err := scanSale(r.tx.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE receipt_ref=$1 FOR UPDATE`, receiptRef))
	if err != nil {
		return nil, err
	}
	rows, err := r.tx.Query(ctx,
		`SELECT product_id, product_name, qty, unit_price, line_total
FROM sale_items WHERE sale_id=$1 ORDER BY id`, sale.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sale.Items, err = collectItems(rows)
	return sale, err
}

func (r *txRepository) SumRefundedQuantities(ctx context.Context, saleID int64) (map[int64]int, error) {
	rows, err := r.tx.Query(ctx,
		`SELECT ri.product_id, COALESCE(SUM(ri.qty), 0)
FROM refund_items ri JOIN refunds rf ON rf.id = ri.refund_id
WHERE rf.sale_id=$1 GROUP BY ri.product_id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := map[int64]int{}
	for rows.Next() {
		var productID int64
		var qty int
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		sums[productID] = qty
	}
	return sums, rows.Err()
}

func (r *txRepository) InsertRefund(ctx context.Context, rf *Refund) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO refunds (sale_id, receipt_ref, refund_date, cashier, reason, total_refund)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		rf.SaleID, rf.ReceiptRef, rf.RefundDate, rf.Cashier, rf.Reason, rf.TotalRefund).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, it := range rf.Items {
		_, err := r.tx.Exec(ctx,
			`INSERT INTO refund_items (refund_id, product_id, product_name, qty, unit_price, line_total)
VALUES ($1,$2,$3,$4,$5,$6)`,
			id, it.ProductID, it.ProductName, it.Qty, it.UnitPrice, it.LineTotal)
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *txRepository) UpdateSaleRefundTotals(ctx context.Context, saleID int64, refundedTotal float64, fullyRefunded bool) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE sales SET refunded_total=$1, fully_refunded=$2 WHERE id=$3`,
		refundedTotal, fullyRefunded, saleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return nil
}
