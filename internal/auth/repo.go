package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elman-pos/elman/internal/platform/db"
)

// Repository looks up and provisions user accounts.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, username, passwordHash string, role Role) (int64, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// ErrUserNotFound indicates a missing user row.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken indicates the username is already registered.
var ErrUsernameTaken = errors.New("username already taken")

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username=$1`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *pgRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *pgRepository) CreateUser(ctx context.Context, username, passwordHash string, role Role) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES ($1,$2,$3,NOW()) RETURNING id`,
		username, passwordHash, string(role)).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	return id, nil
}

func (r *pgRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash=$2 WHERE id=$1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
