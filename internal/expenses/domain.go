package expenses

import (
	"errors"
	"math"
	"time"
)

// Category enumerates expense buckets used by the profit report.
type Category string

const (
	CategoryInventoryPurchase Category = "Inventory Purchase"
	CategoryVendorBill        Category = "Vendor Bill"
	CategoryElectricity       Category = "Electricity"
	CategoryRent              Category = "Rent"
	CategoryOther             Category = "Other"
)

// Item is one expense line.
type Item struct {
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	UnitCost  float64 `json:"unit_cost"`
	LineTotal float64 `json:"line_total"`
}

// Expense is a recorded business cost. Immutable once created.
type Expense struct {
	ID            int64     `json:"id"`
	ExpenseDate   time.Time `json:"expense_date"`
	Category      Category  `json:"category"`
	Description   string    `json:"description"`
	Vendor        *string   `json:"vendor,omitempty"`
	PaymentMethod *string   `json:"payment_method,omitempty"`
	Total         float64   `json:"total"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	Items         []Item    `json:"items"`
}

// CreateItem is one requested expense line.
type CreateItem struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Qty      int     `json:"qty" validate:"required,gte=1"`
	UnitCost float64 `json:"unit_cost" validate:"gte=0"`
}

// CreateExpenseRequest records a new expense. The total is derived from the
// items server-side; clients never send it.
type CreateExpenseRequest struct {
	ExpenseDate   *time.Time   `json:"expense_date,omitempty"`
	Category      Category     `json:"category" validate:"required,oneof='Inventory Purchase' 'Vendor Bill' Electricity Rent Other"`
	Description   string       `json:"description" validate:"required,max=500"`
	Vendor        *string      `json:"vendor,omitempty" validate:"omitempty,max=200"`
	PaymentMethod *string      `json:"payment_method,omitempty" validate:"omitempty,oneof=Cash Zaad Edahab"`
	Items         []CreateItem `json:"items" validate:"required,min=1,dive"`
}

// ErrNotFound indicates the expense does not exist.
var ErrNotFound = errors.New("expense not found")

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
