package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/elman-pos/elman/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Create(ctx context.Context, e *Expense) (int64, error)
	List(ctx context.Context, search string, limit int) ([]Expense, error)
	Get(ctx context.Context, id int64) (*Expense, error)
}

// AuditPort records mutating actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates the profit report cache after new expenses land.
type CachePort interface {
	Bump(ctx context.Context) error
}

// Service manages expense records.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache CachePort
	now   func() time.Time
}

// NewService builds a Service.
func NewService(repo RepositoryPort, audit AuditPort, cache CachePort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, now: time.Now}
}

// Create computes line and grand totals from the items and stores the
// expense. The creator is taken from the authenticated actor.
func (s *Service) Create(ctx context.Context, req CreateExpenseRequest) (int64, error) {
	expenseDate := s.now()
	if req.ExpenseDate != nil {
		expenseDate = *req.ExpenseDate
	}
	actor, _ := shared.ActorFromContext(ctx)

	items := make([]Item, 0, len(req.Items))
	total := 0.0
	for _, line := range req.Items {
		lineTotal := line.UnitCost * float64(line.Qty)
		total += lineTotal
		items = append(items, Item{
			Name:      line.Name,
			Qty:       line.Qty,
			UnitCost:  line.UnitCost,
			LineTotal: lineTotal,
		})
	}

	expense := &Expense{
		ExpenseDate:   expenseDate,
		Category:      req.Category,
		Description:   req.Description,
		Vendor:        req.Vendor,
		PaymentMethod: req.PaymentMethod,
		Total:         round2(total),
		CreatedBy:     actor.Username,
		Items:         items,
	}
	id, err := s.repo.Create(ctx, expense)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    actor,
			Action:   "expenses:create",
			Entity:   "expense",
			EntityID: fmt.Sprintf("%d", id),
			Meta:     map[string]any{"category": req.Category, "total": expense.Total},
		})
	}
	return id, nil
}

// List returns recent expenses, optionally filtered by a search term.
func (s *Service) List(ctx context.Context, search string) ([]Expense, error) {
	return s.repo.List(ctx, search, 200)
}

// Get loads one expense with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Expense, error) {
	return s.repo.Get(ctx, id)
}
