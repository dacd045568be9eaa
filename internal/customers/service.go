package customers

import (
	"context"
	"fmt"

	"github.com/elman-pos/elman/internal/shared"
)

// RepositoryPort abstracts customer persistence.
type RepositoryPort interface {
	List(ctx context.Context, search string, limit int) ([]Customer, error)
	GetName(ctx context.Context, id int64) (string, error)
	Create(ctx context.Context, req CreateCustomerRequest) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
}

// AuditPort records mutating actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates CRM operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns customers matching the optional search term.
func (s *Service) List(ctx context.Context, search string) ([]Customer, error) {
	return s.repo.List(ctx, search, 200)
}

// GetName resolves the current name of a customer.
func (s *Service) GetName(ctx context.Context, id int64) (string, error) {
	return s.repo.GetName(ctx, id)
}

// Create adds a new customer.
func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (int64, error) {
	id, err := s.repo.Create(ctx, req)
	if err != nil {
		return 0, err
	}
	s.recordAudit(ctx, "customer:create", id, map[string]any{"name": req.Name})
	return id, nil
}

// Update patches a customer.
func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) error {
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return err
	}
	s.recordAudit(ctx, "customer:update", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor, _ := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "customer",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
