package auth

import "time"

// Role enumerates user roles. Owners manage the catalog, expenses and
// reports; cashiers operate the register.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleCashier Role = "cashier"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleCashier
}

// User is an account that can sign in.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and user identity.
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateUserRequest provisions a new account.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,oneof=owner cashier"`
}

// ResetPasswordRequest replaces an account's password.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}
