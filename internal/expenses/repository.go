package expenses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elman-pos/elman/internal/platform/db"
)

// Repository persists expenses.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create writes the expense and its items in one transaction and returns the
// new id.
func (r *Repository) Create(ctx context.Context, e *Expense) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO expenses (expense_date, category, description, vendor, payment_method, total, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW()) RETURNING id`,
			e.ExpenseDate, string(e.Category), e.Description, e.Vendor, e.PaymentMethod, e.Total, e.CreatedBy).Scan(&id)
		if err != nil {
			return err
		}
		for _, it := range e.Items {
			_, err := tx.Exec(ctx,
				`INSERT INTO expense_items (expense_id, name, qty, unit_cost, line_total)
VALUES ($1,$2,$3,$4,$5)`,
				id, it.Name, it.Qty, it.UnitCost, it.LineTotal)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// List returns recent expenses, newest first, optionally filtered by a term
// matched against description, vendor and category.
func (r *Repository) List(ctx context.Context, search string, limit int) ([]Expense, error) {
	if limit <= 0 {
		limit = 200
	}
	q := `SELECT id, expense_date, category, description, vendor, payment_method, total, created_by, created_at
FROM expenses`
	args := []any{}
	if search != "" {
		q += ` WHERE description ILIKE $1 OR vendor ILIKE $1 OR category ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	q += fmt.Sprintf(` ORDER BY expense_date DESC, id DESC LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Expense{}
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.ExpenseDate, &e.Category, &e.Description, &e.Vendor,
			&e.PaymentMethod, &e.Total, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get loads one expense with its items.
func (r *Repository) Get(ctx context.Context, id int64) (*Expense, error) {
	var e Expense
	err := r.pool.QueryRow(ctx,
		`SELECT id, expense_date, category, description, vendor, payment_method, total, created_by, created_at
FROM expenses WHERE id=$1`, id).
		Scan(&e.ID, &e.ExpenseDate, &e.Category, &e.Description, &e.Vendor,
			&e.PaymentMethod, &e.Total, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT name, qty, unit_cost, line_total FROM expense_items WHERE expense_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	e.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Name, &it.Qty, &it.UnitCost, &it.LineTotal); err != nil {
			return nil, err
		}
		e.Items = append(e.Items, it)
	}
	return &e, rows.Err()
}
