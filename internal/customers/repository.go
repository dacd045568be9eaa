package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists customers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, name, phone, email, address, notes, created_at`

// List returns customers newest first, optionally filtered by a
// case-insensitive search over name, phone and email.
func (r *Repository) List(ctx context.Context, search string, limit int) ([]Customer, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `SELECT ` + customerColumns + ` FROM customers`
	args := []any{}
	if s := strings.TrimSpace(search); s != "" {
		query += ` WHERE name ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+s+"%")
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetName returns the current name for a customer id, or ErrNotFound.
func (r *Repository) GetName(ctx context.Context, id int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM customers WHERE id=$1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return name, nil
}

// Create inserts a customer and returns its id.
func (r *Repository) Create(ctx context.Context, req CreateCustomerRequest) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (name, phone, email, address, notes, created_at)
VALUES ($1,$2,$3,$4,$5,NOW()) RETURNING id`,
		req.Name, req.Phone, req.Email, req.Address, req.Notes).Scan(&id)
	return id, err
}

// Update applies a partial update built from the non-nil request fields.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	sets := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+1)
	for _, col := range []string{"name", "phone", "email", "address", "notes"} {
		if v, ok := updates[col]; ok {
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
		}
	}
	args = append(args, id)
	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE customers SET %s WHERE id=$%d`, strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
