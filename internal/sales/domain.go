package sales

import (
	"errors"
	"math"
	"time"
)

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentZaad   PaymentMethod = "Zaad"
	PaymentEdahab PaymentMethod = "Edahab"
)

// SaleItem is one line of a sale. Product name and unit price are snapshots
// taken at sale time; later catalog changes never rewrite a past sale.
type SaleItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Qty         int     `json:"qty"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

// Sale is a committed transaction. Totals are immutable after creation;
// only RefundedTotal and FullyRefunded may change, monotonically, through
// the refund path.
type Sale struct {
	ID            int64         `json:"id"`
	ReceiptRef    string        `json:"receipt_ref"`
	SaleDate      time.Time     `json:"sale_date"`
	Cashier       string        `json:"cashier"`
	CustomerName  *string       `json:"customer,omitempty"`
	CustomerID    *int64        `json:"customer_id,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Subtotal      float64       `json:"subtotal"`
	Discount      float64       `json:"discount"`
	Total         float64       `json:"total"`
	Unpaid        bool          `json:"unpaid"`
	RefundedTotal float64       `json:"refunded_total"`
	FullyRefunded bool          `json:"fully_refunded"`
	Items         []SaleItem    `json:"items"`
}

// Refund records one refund call against a sale. Immutable once created;
// many refunds may reference one sale.
type Refund struct {
	ID          int64      `json:"id"`
	SaleID      int64      `json:"sale_id"`
	ReceiptRef  string     `json:"receipt_ref"`
	RefundDate  time.Time  `json:"refund_date"`
	Cashier     string     `json:"cashier"`
	Reason      string     `json:"reason"`
	TotalRefund float64    `json:"total_refund"`
	Items       []SaleItem `json:"items"`
}

// CreateSaleItem is one requested cart line.
type CreateSaleItem struct {
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Qty       int      `json:"qty" validate:"required,gte=1"`
	UnitPrice *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

// CreateSaleRequest is the cart submitted by the register.
type CreateSaleRequest struct {
	Cashier       string           `json:"cashier" validate:"required,max=100"`
	CustomerID    *int64           `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	Customer      *string          `json:"customer,omitempty" validate:"omitempty,max=200"`
	PaymentMethod PaymentMethod    `json:"payment_method" validate:"required,oneof=Cash Zaad Edahab"`
	SaleDate      *time.Time       `json:"sale_date,omitempty"`
	Discount      float64          `json:"discount" validate:"gte=0"`
	Unpaid        bool             `json:"unpaid"`
	Items         []CreateSaleItem `json:"items" validate:"required,min=1,dive"`
}

// CreateSaleResult is returned after a successful commit.
type CreateSaleResult struct {
	SaleID     int64     `json:"sale_id"`
	ReceiptRef string    `json:"receipt_ref"`
	Subtotal   float64   `json:"subtotal"`
	Discount   float64   `json:"discount"`
	Total      float64   `json:"total"`
	SaleDate   time.Time `json:"sale_date"`
}

// RefundItem is one requested refund line.
type RefundItem struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Qty       int   `json:"qty" validate:"required,gte=1"`
}

// RefundRequest asks for a partial or full refund on a receipt.
type RefundRequest struct {
	Cashier string       `json:"cashier" validate:"required,max=100"`
	Reason  string       `json:"reason" validate:"required,max=500"`
	Items   []RefundItem `json:"items" validate:"required,min=1,dive"`
}

// RefundResult is returned after a successful refund commit.
type RefundResult struct {
	ReceiptRef    string  `json:"receipt_ref"`
	TotalRefund   float64 `json:"total_refund"`
	RefundedTotal float64 `json:"refunded_total"`
	FullyRefunded bool    `json:"fully_refunded"`
}

// HistoryRow is a compact sales-history listing entry.
type HistoryRow struct {
	ReceiptRef    string    `json:"receipt_ref"`
	Date          time.Time `json:"date"`
	Cashier       string    `json:"cashier"`
	Customer      *string   `json:"customer"`
	Payment       string    `json:"payment"`
	Total         float64   `json:"total"`
	Unpaid        bool      `json:"unpaid"`
	RefundedTotal float64   `json:"refunded_total"`
	FullyRefunded bool      `json:"fully_refunded"`
}

// ProductSnapshot is the point-in-time product read used to price a cart.
type ProductSnapshot struct {
	ID       int64
	Name     string
	Price    float64
	Stock    int
	Archived bool
}

var (
	// ErrSaleNotFound indicates no sale exists for the receipt reference.
	ErrSaleNotFound = errors.New("sale not found")
	// ErrProductNotFound indicates a cart line references a missing product.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductArchived indicates a cart line references an archived product.
	ErrProductArchived = errors.New("product is archived")
	// ErrInsufficientStock indicates a requested quantity exceeds current
	// stock. The text leads the user-visible message, hence the casing.
	ErrInsufficientStock = errors.New("Insufficient stock")
	// ErrItemNotOnSale indicates a refund line for a product never sold on the receipt.
	ErrItemNotOnSale = errors.New("item not found on sale")
	// ErrRefundExceedsAvailable indicates a refund above the remaining
	// refundable quantity. Same casing rule as ErrInsufficientStock.
	ErrRefundExceedsAvailable = errors.New("Refund qty too high")
	// ErrDuplicateReceiptRef indicates a receipt reference collision at insert.
	ErrDuplicateReceiptRef = errors.New("duplicate receipt reference")
	// ErrCustomerNotFound indicates the referenced customer does not exist.
	ErrCustomerNotFound = errors.New("customer not found")
)

// round2 rounds to 2-decimal currency precision. Only final totals are
// rounded; line totals keep full precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
