package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elman-pos/elman/internal/customers"
	"github.com/elman-pos/elman/internal/inventory"
	"github.com/elman-pos/elman/internal/platform/db"
	"github.com/elman-pos/elman/internal/platform/httpx"
	"github.com/elman-pos/elman/internal/shared"
)

// receiptRetries bounds regeneration attempts on a receipt_ref collision.
const receiptRetries = 3

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByReceipt(ctx context.Context, receiptRef string) (*Sale, []Refund, error)
	History(ctx context.Context, search string, limit int) ([]HistoryRow, error)
}

// CustomerPort resolves a customer id to the display name snapshotted on the
// sale.
type CustomerPort interface {
	GetName(ctx context.Context, id int64) (string, error)
}

// AuditPort records mutating actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates derived report caches after a committed mutation.
type CachePort interface {
	Bump(ctx context.Context) error
}

// MetricsPort counts committed sales and refunds.
type MetricsPort interface {
	SaleCommitted(paymentMethod string)
	RefundCommitted()
}

// Service is the sale and refund transaction engine. Every commit is
// all-or-nothing: stock movement, ledger rows and the sale or refund record
// land together or not at all.
type Service struct {
	repo      RepositoryPort
	customers CustomerPort
	audit     AuditPort
	cache     CachePort
	metrics   MetricsPort
	now       func() time.Time
}

// NewService builds a Service.
func NewService(repo RepositoryPort, cust CustomerPort, audit AuditPort, cache CachePort, metrics MetricsPort) *Service {
	return &Service{
		repo:      repo,
		customers: cust,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		now:       time.Now,
	}
}

// CreateSale validates and prices the cart, then commits it atomically.
// Unit prices default to the current catalog price unless the request
// overrides them; either way the price is snapshotted onto the sale. The
// discount is subtracted from the subtotal with a floor of zero, and the
// final total is rounded to 2 decimals.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest) (*CreateSaleResult, error) {
	saleDate := s.now()
	if req.SaleDate != nil {
		saleDate = *req.SaleDate
	}

	customerName := req.Customer
	if req.CustomerID != nil {
		name, err := s.customers.GetName(ctx, *req.CustomerID)
		if err != nil {
			if errors.Is(err, customers.ErrNotFound) {
				return nil, fmt.Errorf("%w: id %d", ErrCustomerNotFound, *req.CustomerID)
			}
			return nil, err
		}
		customerName = &name
	}

	var result *CreateSaleResult
	var err error
	for attempt := 0; attempt < receiptRetries; attempt++ {
		ref := makeReceiptRef(s.now())
		result, err = s.commitSale(ctx, req, ref, saleDate, customerName)
		if errors.Is(err, ErrDuplicateReceiptRef) {
			continue
		}
		break
	}
	if err != nil {
		return nil, s.mapTxErr(err)
	}

	s.metrics.SaleCommitted(string(req.PaymentMethod))
	s.afterMutation(ctx, "sales:create", result.ReceiptRef, map[string]any{
		"total":          result.Total,
		"payment_method": req.PaymentMethod,
		"items":          len(req.Items),
	})
	return result, nil
}

func (s *Service) commitSale(ctx context.Context, req CreateSaleRequest, ref string, saleDate time.Time, customerName *string) (*CreateSaleResult, error) {
	var result CreateSaleResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		items := make([]SaleItem, 0, len(req.Items))
		subtotal := 0.0
		for _, line := range req.Items {
			snap, err := tx.GetProductForSale(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, ErrProductNotFound) {
					return fmt.Errorf("%w: id %d", ErrProductNotFound, line.ProductID)
				}
				return err
			}
			if snap.Archived {
				return fmt.Errorf("%w: %s", ErrProductArchived, snap.Name)
			}
			if snap.Stock < line.Qty {
				return fmt.Errorf("%w for %s. Available: %d", ErrInsufficientStock, snap.Name, snap.Stock)
			}
			unitPrice := snap.Price
			if line.UnitPrice != nil {
				unitPrice = *line.UnitPrice
			}
			lineTotal := unitPrice * float64(line.Qty)
			subtotal += lineTotal
			items = append(items, SaleItem{
				ProductID:   snap.ID,
				ProductName: snap.Name,
				Qty:         line.Qty,
				UnitPrice:   unitPrice,
				LineTotal:   lineTotal,
			})
		}

		total := subtotal - req.Discount
		if total < 0 {
			total = 0
		}
		total = round2(total)

		sale := &Sale{
			ReceiptRef:    ref,
			SaleDate:      saleDate,
			Cashier:       req.Cashier,
			CustomerName:  customerName,
			CustomerID:    req.CustomerID,
			PaymentMethod: req.PaymentMethod,
			Subtotal:      subtotal,
			Discount:      req.Discount,
			Total:         total,
			Unpaid:        req.Unpaid,
			Items:         items,
		}
		saleID, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}

		for _, it := range items {
			name, err := tx.DecrementStockGuarded(ctx, it.ProductID, it.Qty)
			if err != nil {
				if errors.Is(err, ErrInsufficientStock) {
					return fmt.Errorf("%w for %s. Available less than %d", ErrInsufficientStock, it.ProductName, it.Qty)
				}
				return err
			}
			err = tx.AppendLedger(ctx, inventory.LogEntry{
				ProductID:   it.ProductID,
				ProductName: name,
				ChangeType:  inventory.ChangeSale,
				QtyChange:   -it.Qty,
				Reason:      "Sale " + ref,
			})
			if err != nil {
				return err
			}
		}

		result = CreateSaleResult{
			SaleID:     saleID,
			ReceiptRef: ref,
			Subtotal:   sale.Subtotal,
			Discount:   sale.Discount,
			Total:      sale.Total,
			SaleDate:   sale.SaleDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RefundSale refunds up to the remaining refundable quantity of each line on
// the receipt, restores stock, and advances the sale's cumulative refund
// state. Concurrent refunds of the same receipt serialize on the sale row.
func (s *Service) RefundSale(ctx context.Context, receiptRef string, req RefundRequest) (*RefundResult, error) {
	lines, err := mergeRefundLines(req.Items)
	if err != nil {
		return nil, err
	}

	ledgerReason := req.Reason
	if ledgerReason == "" {
		ledgerReason = "Refund"
	}
	ledgerReason += " (" + receiptRef + ")"

	var result RefundResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, receiptRef)
		if err != nil {
			return err
		}

		soldByProduct := map[int64]SaleItem{}
		for _, it := range sale.Items {
			merged := soldByProduct[it.ProductID]
			merged.ProductID = it.ProductID
			merged.ProductName = it.ProductName
			merged.UnitPrice = it.UnitPrice
			merged.Qty += it.Qty
			soldByProduct[it.ProductID] = merged
		}
		refunded, err := tx.SumRefundedQuantities(ctx, sale.ID)
		if err != nil {
			return err
		}

		refundItems := make([]SaleItem, 0, len(lines))
		totalRefund := 0.0
		for _, line := range lines {
			sold, ok := soldByProduct[line.ProductID]
			if !ok {
				return fmt.Errorf("%w: product id %d", ErrItemNotOnSale, line.ProductID)
			}
			refundable := sold.Qty - refunded[line.ProductID]
			if line.Qty > refundable {
				return fmt.Errorf("%w for %s. Max refundable: %d", ErrRefundExceedsAvailable, sold.ProductName, refundable)
			}
			lineTotal := sold.UnitPrice * float64(line.Qty)
			totalRefund += lineTotal
			refundItems = append(refundItems, SaleItem{
				ProductID:   line.ProductID,
				ProductName: sold.ProductName,
				Qty:         line.Qty,
				UnitPrice:   sold.UnitPrice,
				LineTotal:   lineTotal,
			})
		}
		totalRefund = round2(totalRefund)

		for _, it := range refundItems {
			name, err := tx.IncrementStock(ctx, it.ProductID, it.Qty)
			if err != nil {
				return err
			}
			err = tx.AppendLedger(ctx, inventory.LogEntry{
				ProductID:   it.ProductID,
				ProductName: name,
				ChangeType:  inventory.ChangeRefund,
				QtyChange:   it.Qty,
				Reason:      ledgerReason,
			})
			if err != nil {
				return err
			}
		}

		refund := &Refund{
			SaleID:      sale.ID,
			ReceiptRef:  receiptRef,
			RefundDate:  s.now(),
			Cashier:     req.Cashier,
			Reason:      req.Reason,
			TotalRefund: totalRefund,
			Items:       refundItems,
		}
		if _, err := tx.InsertRefund(ctx, refund); err != nil {
			return err
		}

		newRefundedTotal := round2(sale.RefundedTotal + totalRefund)
		fullyRefunded := newRefundedTotal >= sale.Total
		if err := tx.UpdateSaleRefundTotals(ctx, sale.ID, newRefundedTotal, fullyRefunded); err != nil {
			return err
		}

		result = RefundResult{
			ReceiptRef:    receiptRef,
			TotalRefund:   totalRefund,
			RefundedTotal: newRefundedTotal,
			FullyRefunded: fullyRefunded,
		}
		return nil
	})
	if err != nil {
		return nil, s.mapTxErr(err)
	}

	s.metrics.RefundCommitted()
	s.afterMutation(ctx, "sales:refund", receiptRef, map[string]any{
		"total_refund": result.TotalRefund,
		"reason":       req.Reason,
	})
	return &result, nil
}

// GetByReceipt reads back one sale with its refunds.
func (s *Service) GetByReceipt(ctx context.Context, receiptRef string) (*Sale, []Refund, error) {
	return s.repo.GetByReceipt(ctx, receiptRef)
}

// History lists recent sales, optionally filtered by a search term.
func (s *Service) History(ctx context.Context, search string) ([]HistoryRow, error) {
	return s.repo.History(ctx, search, 200)
}

// mergeRefundLines collapses duplicate product lines so the refundable check
// sees each product's total requested quantity at once.
func mergeRefundLines(items []RefundItem) ([]RefundItem, error) {
	order := make([]int64, 0, len(items))
	byProduct := map[int64]int{}
	for _, it := range items {
		if it.Qty < 1 {
			return nil, fmt.Errorf("refund qty must be at least 1")
		}
		if _, seen := byProduct[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		byProduct[it.ProductID] += it.Qty
	}
	merged := make([]RefundItem, 0, len(order))
	for _, id := range order {
		merged = append(merged, RefundItem{ProductID: id, Qty: byProduct[id]})
	}
	return merged, nil
}

func (s *Service) mapTxErr(err error) error {
	if db.IsSerializationFailure(err) {
		return fmt.Errorf("%w: concurrent update, retry the request", httpx.ErrTransient)
	}
	if db.IsTransient(err) {
		return fmt.Errorf("%w: store unavailable, retry the request", httpx.ErrTransient)
	}
	return err
}

func (s *Service) afterMutation(ctx context.Context, action, receiptRef string, meta map[string]any) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		actor, _ := shared.ActorFromContext(ctx)
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    actor,
			Action:   action,
			Entity:   "sale",
			EntityID: receiptRef,
			Meta:     meta,
		})
	}
}
