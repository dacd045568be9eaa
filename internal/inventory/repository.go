package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elman-pos/elman/internal/platform/db"
)

// Repository persists ledger entries and applies guarded stock changes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations that must run inside one transaction.
type TxRepository interface {
	// IncrementStock adds qty to the product's stock and returns the product name.
	IncrementStock(ctx context.Context, productID int64, qty int) (string, error)
	// DecrementStockGuarded subtracts qty iff stock >= qty, in a single
	// conditional update, and returns the product name. It returns
	// ErrProductNotFound or ErrInsufficientStock on guard failure, re-checking
	// existence to tell the two apart.
	DecrementStockGuarded(ctx context.Context, productID int64, qty int) (string, error)
	// AppendLog writes one ledger row.
	AppendLog(ctx context.Context, entry LogEntry) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// History lists recent ledger entries for one product, newest first.
func (r *Repository) History(ctx context.Context, productID int64, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, product_name, change_type, qty_change, reason, created_at
FROM inventory_log WHERE product_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LogEntry{}
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.ProductName, &e.ChangeType, &e.QtyChange, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
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
	// Guard failed: not found, or not enough stock.
	var exists bool
	if err := r.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists); err != nil {
		return "", err
	}
	if !exists {
		return "", ErrProductNotFound
	}
	return "", ErrInsufficientStock
}

func (r *txRepository) AppendLog(ctx context.Context, entry LogEntry) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO inventory_log (product_id, product_name, change_type, qty_change, reason, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())`,
		entry.ProductID, entry.ProductName, string(entry.ChangeType), entry.QtyChange, entry.Reason)
	return err
}
