package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elman-pos/elman/internal/sales"
)

func TestReceiptTemplateRendersTotals(t *testing.T) {
	customer := "Amina Warsame"
	sale := &sales.Sale{
		ReceiptRef:    "RCPT-20260831-AB12CD",
		SaleDate:      time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC),
		Cashier:       "amal",
		CustomerName:  &customer,
		PaymentMethod: sales.PaymentCash,
		Subtotal:      15,
		Discount:      1,
		Total:         14,
		Items: []sales.SaleItem{
			{ProductName: "Rice 1kg", Qty: 2, UnitPrice: 4.5, LineTotal: 9},
			{ProductName: "Sugar <1kg>", Qty: 3, UnitPrice: 2, LineTotal: 6},
		},
	}

	html, err := execute(receiptTmpl, map[string]any{
		"ShopName": "Elman POS",
		"Sale":     sale,
		"Refunds":  []sales.Refund{},
	})
	require.NoError(t, err)

	assert.Contains(t, html, "RCPT-20260831-AB12CD")
	assert.Contains(t, html, "Amina Warsame")
	assert.Contains(t, html, "14.00")
	assert.Contains(t, html, "-1.00")
	assert.Contains(t, html, "Sugar &lt;1kg&gt;", "item names must be escaped")
	assert.NotContains(t, html, "UNPAID")
}
