package customers

import (
	"errors"
	"time"
)

// Customer is a CRM record. Sales keep only a name snapshot, so editing a
// customer never rewrites past receipts.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCustomerRequest carries the fields for a new customer.
type CreateCustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=300"`
	Notes   *string `json:"notes,omitempty"`
}

// UpdateCustomerRequest patches an existing customer.
type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=300"`
	Notes   *string `json:"notes,omitempty"`
}

// ErrNotFound indicates a missing customer.
var ErrNotFound = errors.New("customer not found")
