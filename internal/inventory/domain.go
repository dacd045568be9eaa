package inventory

import (
	"errors"
	"time"
)

// ChangeType enumerates the kinds of stock movement recorded in the ledger.
type ChangeType string

const (
	// ChangeSale is a decrement caused by a committed sale.
	ChangeSale ChangeType = "SALE"
	// ChangeRestock is an inbound increment.
	ChangeRestock ChangeType = "RESTOCK"
	// ChangeAdjustment is a manual decrement outside the sales flow.
	ChangeAdjustment ChangeType = "ADJUSTMENT"
	// ChangeRefund is an increment caused by a refund restoring stock.
	ChangeRefund ChangeType = "REFUND"
)

// LogEntry is one immutable ledger row. The product name is a snapshot taken
// at write time, not a join.
type LogEntry struct {
	ID          int64      `json:"id"`
	ProductID   int64      `json:"product_id"`
	ProductName string     `json:"product_name"`
	ChangeType  ChangeType `json:"change_type"`
	QtyChange   int        `json:"qty_change"`
	Reason      string     `json:"reason"`
	CreatedAt   time.Time  `json:"created_at"`
}

// AdjustmentRequest carries a restock or manual decrease request.
type AdjustmentRequest struct {
	Qty    int    `json:"qty" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// ErrProductNotFound indicates the referenced product does not exist.
var ErrProductNotFound = errors.New("product not found")

// ErrInsufficientStock indicates a decrement would take stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")
