package catalog

import (
	"context"
	"fmt"

	"github.com/elman-pos/elman/internal/shared"
)

// RepositoryPort abstracts product persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, req CreateProductRequest) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
}

// AuditPort records mutating actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates cached reports after catalog mutations.
type CachePort interface {
	Bump(ctx context.Context) error
}

// Service coordinates catalog operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache CachePort
}

// NewService builds a Service.
func NewService(repo RepositoryPort, audit AuditPort, cache CachePort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a product to the catalog.
func (s *Service) Create(ctx context.Context, req CreateProductRequest) (int64, error) {
	id, err := s.repo.Create(ctx, req)
	if err != nil {
		return 0, err
	}
	s.bumpCache(ctx)
	s.recordAudit(ctx, "product:create", fmt.Sprintf("%d", id), map[string]any{
		"name":  req.Name,
		"stock": req.Stock,
	})
	return id, nil
}

// Update patches a product.
func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) error {
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.SKU != nil {
		updates["sku"] = *req.SKU
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.UnitCost != nil {
		updates["unit_cost"] = *req.UnitCost
	}
	if req.LowStockThreshold != nil {
		updates["low_stock_threshold"] = *req.LowStockThreshold
	}
	if req.Archived != nil {
		updates["archived"] = *req.Archived
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return err
	}
	s.bumpCache(ctx)
	s.recordAudit(ctx, "product:update", fmt.Sprintf("%d", id), map[string]any{"fields": keys(updates)})
	return nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}

func (s *Service) recordAudit(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor, _ := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "product",
		EntityID: entityID,
		Meta:     meta,
	})
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
