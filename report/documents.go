package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/elman-pos/elman/internal/expenses"
	"github.com/elman-pos/elman/internal/reports"
	"github.com/elman-pos/elman/internal/sales"
)

// Renderer builds printable documents and converts them through Gotenberg.
// It satisfies the renderer ports of the sales, expenses and reports
// handlers.
type Renderer struct {
	client   *Client
	shopName string
}

// NewRenderer constructs a Renderer.
func NewRenderer(client *Client, shopName string) *Renderer {
	if shopName == "" {
		shopName = "Elman POS"
	}
	return &Renderer{client: client, shopName: shopName}
}

var tmplFuncs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

var receiptTmpl = template.Must(template.New("receipt").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
body { font-family: monospace; font-size: 12px; margin: 24px; }
h1 { font-size: 16px; } table { width: 100%; border-collapse: collapse; }
td, th { text-align: left; padding: 2px 6px; } .num { text-align: right; }
.total { border-top: 1px solid #000; font-weight: bold; }
.muted { color: #555; }
</style></head><body>
<h1>{{.ShopName}}</h1>
<p>Receipt {{.Sale.ReceiptRef}}<br>
{{.Sale.SaleDate.Format "2006-01-02 15:04"}} &middot; Cashier: {{.Sale.Cashier}}
{{- if .Sale.CustomerName}}<br>Customer: {{.Sale.CustomerName}}{{end}}</p>
<table>
<tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
{{range .Sale.Items}}<tr><td>{{.ProductName}}</td><td class="num">{{.Qty}}</td><td class="num">{{money .UnitPrice}}</td><td class="num">{{money .LineTotal}}</td></tr>
{{end}}
<tr><td colspan="3">Subtotal</td><td class="num">{{money .Sale.Subtotal}}</td></tr>
{{if gt .Sale.Discount 0.0}}<tr><td colspan="3">Discount</td><td class="num">-{{money .Sale.Discount}}</td></tr>{{end}}
<tr class="total"><td colspan="3">Total ({{.Sale.PaymentMethod}})</td><td class="num">{{money .Sale.Total}}</td></tr>
{{if gt .Sale.RefundedTotal 0.0}}<tr><td colspan="3">Refunded</td><td class="num">{{money .Sale.RefundedTotal}}</td></tr>{{end}}
</table>
{{if .Refunds}}<p class="muted">Refunds</p>
<table>
{{range .Refunds}}<tr><td>{{.RefundDate.Format "2006-01-02"}}</td><td>{{.Reason}}</td><td class="num">{{money .TotalRefund}}</td></tr>
{{end}}
</table>{{end}}
{{if .Sale.Unpaid}}<p><strong>UNPAID</strong></p>{{end}}
</body></html>`))

// RenderReceipt builds the printable receipt for a sale.
func (r *Renderer) RenderReceipt(ctx context.Context, sale *sales.Sale, refunds []sales.Refund) ([]byte, error) {
	html, err := execute(receiptTmpl, map[string]any{
		"ShopName": r.shopName,
		"Sale":     sale,
		"Refunds":  refunds,
	})
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

var expenseTmpl = template.Must(template.New("expense").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
body { font-family: sans-serif; font-size: 13px; margin: 24px; }
h1 { font-size: 17px; } table { width: 100%; border-collapse: collapse; }
td, th { text-align: left; padding: 3px 6px; border-bottom: 1px solid #ddd; }
.num { text-align: right; } .total { font-weight: bold; }
</style></head><body>
<h1>{{.ShopName}} &mdash; Expense voucher #{{.Expense.ID}}</h1>
<p>{{.Expense.ExpenseDate.Format "2006-01-02"}} &middot; {{.Expense.Category}}
{{- if .Expense.Vendor}} &middot; Vendor: {{.Expense.Vendor}}{{end}}<br>
{{.Expense.Description}}</p>
<table>
<tr><th>Item</th><th class="num">Qty</th><th class="num">Unit cost</th><th class="num">Total</th></tr>
{{range .Expense.Items}}<tr><td>{{.Name}}</td><td class="num">{{.Qty}}</td><td class="num">{{money .UnitCost}}</td><td class="num">{{money .LineTotal}}</td></tr>
{{end}}
<tr class="total"><td colspan="3">Total</td><td class="num">{{money .Expense.Total}}</td></tr>
</table>
<p>Recorded by {{.Expense.CreatedBy}}</p>
</body></html>`))

// RenderExpense builds the printable expense voucher.
func (r *Renderer) RenderExpense(ctx context.Context, e *expenses.Expense) ([]byte, error) {
	html, err := execute(expenseTmpl, map[string]any{
		"ShopName": r.shopName,
		"Expense":  e,
	})
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

var inventoryTmpl = template.Must(template.New("inventory").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
body { font-family: sans-serif; font-size: 13px; margin: 24px; }
h1 { font-size: 17px; } table { width: 100%; border-collapse: collapse; margin-bottom: 18px; }
td, th { text-align: left; padding: 3px 6px; border-bottom: 1px solid #ddd; }
.num { text-align: right; }
</style></head><body>
<h1>{{.ShopName}} &mdash; Inventory summary</h1>
<table>
<tr><td>Active products</td><td class="num">{{.Summary.Products}}</td></tr>
<tr><td>Units in stock</td><td class="num">{{.Summary.StockUnits}}</td></tr>
<tr><td>Stock value (cost)</td><td class="num">{{money .Summary.StockValue}}</td></tr>
<tr><td>Retail value</td><td class="num">{{money .Summary.RetailValue}}</td></tr>
<tr><td>Low stock</td><td class="num">{{.Summary.LowStock}}</td></tr>
<tr><td>Out of stock</td><td class="num">{{.Summary.OutOfStock}}</td></tr>
</table>
{{if .LowStock}}<h1>Restock suggestions</h1>
<table>
<tr><th>Product</th><th class="num">Stock</th><th class="num">Threshold</th><th class="num">Suggested order</th></tr>
{{range .LowStock}}<tr><td>{{.Name}}</td><td class="num">{{.Stock}}</td><td class="num">{{.Threshold}}</td><td class="num">{{.SuggestedRestock}}</td></tr>
{{end}}
</table>{{end}}
</body></html>`))

// RenderInventorySummary builds the printable inventory overview.
func (r *Renderer) RenderInventorySummary(ctx context.Context, summary *reports.InventorySummary, lowStock []reports.LowStockRow) ([]byte, error) {
	html, err := execute(inventoryTmpl, map[string]any{
		"ShopName": r.shopName,
		"Summary":  summary,
		"LowStock": lowStock,
	})
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
