package catalog

import (
	"errors"
	"time"
)

// Product is a sellable item in the catalog. Stock is only mutated through
// the guarded paths in the inventory and sales packages, never directly.
type Product struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	SKU               *string   `json:"sku,omitempty"`
	Price             float64   `json:"price"`
	UnitCost          float64   `json:"unit_cost"`
	Stock             int       `json:"stock"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	Archived          bool      `json:"archived"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateProductRequest carries the fields for a new product.
type CreateProductRequest struct {
	Name              string  `json:"name" validate:"required,max=200"`
	Category          string  `json:"category" validate:"required,max=100"`
	SKU               *string `json:"sku,omitempty" validate:"omitempty,max=64"`
	Price             float64 `json:"price" validate:"gte=0"`
	UnitCost          float64 `json:"unit_cost" validate:"gte=0"`
	Stock             int     `json:"stock" validate:"gte=0"`
	LowStockThreshold int     `json:"low_stock_threshold" validate:"gte=0"`
}

// UpdateProductRequest patches an existing product. Stock is deliberately
// absent: stock changes go through restock/decrease so the ledger stays
// reconciled.
type UpdateProductRequest struct {
	Name              *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Category          *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	SKU               *string  `json:"sku,omitempty" validate:"omitempty,max=64"`
	Price             *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	UnitCost          *float64 `json:"unit_cost,omitempty" validate:"omitempty,gte=0"`
	LowStockThreshold *int     `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
	Archived          *bool    `json:"archived,omitempty"`
}

// ErrNotFound indicates a missing product.
var ErrNotFound = errors.New("product not found")

// ErrDuplicateSKU indicates the SKU is already taken by another product.
var ErrDuplicateSKU = errors.New("sku already exists")
