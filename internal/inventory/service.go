package inventory

import (
	"context"
	"fmt"

	"github.com/elman-pos/elman/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	History(ctx context.Context, productID int64, limit int) ([]LogEntry, error)
}

// AuditPort records mutating actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates derived report caches after stock changes.
type CachePort interface {
	Bump(ctx context.Context) error
}

// Service coordinates restock and manual stock adjustments. Sale and refund
// stock movements are owned by the sales engine; both paths append to the
// same ledger.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache CachePort
}

// NewService builds a Service.
func NewService(repo RepositoryPort, audit AuditPort, cache CachePort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

// Restock increments stock unconditionally and logs a RESTOCK entry.
func (s *Service) Restock(ctx context.Context, productID int64, req AdjustmentRequest) error {
	if req.Qty <= 0 {
		return fmt.Errorf("restock qty must be positive")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		name, err := tx.IncrementStock(ctx, productID, req.Qty)
		if err != nil {
			return err
		}
		return tx.AppendLog(ctx, LogEntry{
			ProductID:   productID,
			ProductName: name,
			ChangeType:  ChangeRestock,
			QtyChange:   req.Qty,
			Reason:      req.Reason,
		})
	})
	if err != nil {
		return err
	}
	s.afterMutation(ctx, "inventory:restock", productID, req.Qty, req.Reason)
	return nil
}

// DecreaseStock performs a guarded decrement (never below zero) and logs an
// ADJUSTMENT entry with a negative delta.
func (s *Service) DecreaseStock(ctx context.Context, productID int64, req AdjustmentRequest) error {
	if req.Qty <= 0 {
		return fmt.Errorf("decrease qty must be positive")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		name, err := tx.DecrementStockGuarded(ctx, productID, req.Qty)
		if err != nil {
			return err
		}
		return tx.AppendLog(ctx, LogEntry{
			ProductID:   productID,
			ProductName: name,
			ChangeType:  ChangeAdjustment,
			QtyChange:   -req.Qty,
			Reason:      req.Reason,
		})
	})
	if err != nil {
		return err
	}
	s.afterMutation(ctx, "inventory:decrease", productID, -req.Qty, req.Reason)
	return nil
}

// History lists ledger entries for one product, newest first.
func (s *Service) History(ctx context.Context, productID int64) ([]LogEntry, error) {
	return s.repo.History(ctx, productID, 200)
}

func (s *Service) afterMutation(ctx context.Context, action string, productID int64, qty int, reason string) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		actor, _ := shared.ActorFromContext(ctx)
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    actor,
			Action:   action,
			Entity:   "product",
			EntityID: fmt.Sprintf("%d", productID),
			Meta:     map[string]any{"qty": qty, "reason": reason},
		})
	}
}
