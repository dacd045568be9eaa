package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elman-pos/elman/internal/platform/db"
)

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, name, category, sku, price, unit_cost, stock, low_stock_threshold, archived, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.SKU, &p.Price, &p.UnitCost,
		&p.Stock, &p.LowStockThreshold, &p.Archived, &p.CreatedAt)
	return p, err
}

// List returns all products sorted by name.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Get returns one product by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a product; when the initial stock is positive it also
// appends a RESTOCK ledger row in the same transaction so reconciliation
// holds from the first day.
func (r *Repository) Create(ctx context.Context, req CreateProductRequest) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO products (name, category, sku, price, unit_cost, stock, low_stock_threshold, archived, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,false,NOW()) RETURNING id`,
			req.Name, req.Category, req.SKU, req.Price, req.UnitCost, req.Stock, req.LowStockThreshold).Scan(&id)
		if err != nil {
			return err
		}
		if req.Stock > 0 {
			_, err = tx.Exec(ctx,
				`INSERT INTO inventory_log (product_id, product_name, change_type, qty_change, reason, created_at)
VALUES ($1,$2,'RESTOCK',$3,'Initial stock',NOW())`,
				id, req.Name, req.Stock)
		}
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateSKU, deref(req.SKU))
		}
		return 0, err
	}
	return id, nil
}

// Update applies a partial update built from the non-nil request fields.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	sets := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+1)
	for _, col := range []string{"name", "category", "sku", "price", "unit_cost", "low_stock_threshold", "archived"} {
		if v, ok := updates[col]; ok {
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
		}
	}
	args = append(args, id)
	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE products SET %s WHERE id=$%d`, strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicateSKU
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
