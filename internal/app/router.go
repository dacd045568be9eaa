package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elman-pos/elman/internal/auth"
	"github.com/elman-pos/elman/internal/catalog"
	"github.com/elman-pos/elman/internal/customers"
	"github.com/elman-pos/elman/internal/expenses"
	"github.com/elman-pos/elman/internal/inventory"
	"github.com/elman-pos/elman/internal/observability"
	"github.com/elman-pos/elman/internal/platform/httpx"
	"github.com/elman-pos/elman/internal/reports"
	"github.com/elman-pos/elman/internal/sales"
	"github.com/elman-pos/elman/internal/shared"
	"github.com/elman-pos/elman/jobs"
)

// RouterDeps aggregates everything the HTTP surface needs.
type RouterDeps struct {
	Config  *Config
	Metrics *observability.Metrics
	Pool    *pgxpool.Pool

	Auth      *auth.Handler
	AuthGuard auth.Middleware
	Audit     *shared.AuditHandler
	Catalog   *catalog.Handler
	Inventory *inventory.Handler
	Customers *customers.Handler
	Sales     *sales.Handler
	Expenses  *expenses.Handler
	Reports   *reports.Handler
	Jobs      *jobs.Handler
}

// NewRouter assembles the full route tree. All /api routes except login
// require a valid token; owner-only mutations sit in a nested role group.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Config: deps.Config, Metrics: deps.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthz(deps.Pool))
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			deps.Auth.MountRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(deps.AuthGuard.RequireAuth)
				r.Get("/me", deps.Auth.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthGuard.RequireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Use(deps.AuthGuard.RequireRole(auth.RoleOwner))
				deps.Auth.MountUserRoutes(r)
			})

			if deps.Audit != nil {
				r.Route("/audit", func(r chi.Router) {
					r.Use(deps.AuthGuard.RequireRole(auth.RoleOwner))
					deps.Audit.MountRoutes(r)
				})
			}

			r.Route("/products", func(r chi.Router) {
				deps.Catalog.MountRoutes(r)
				r.Group(func(r chi.Router) {
					r.Use(deps.AuthGuard.RequireRole(auth.RoleOwner))
					deps.Catalog.MountOwnerRoutes(r)
					deps.Inventory.MountOwnerRoutes(r)
				})
			})

			r.Route("/customers", func(r chi.Router) {
				deps.Customers.MountRoutes(r)
				r.Group(func(r chi.Router) {
					r.Use(deps.AuthGuard.RequireRole(auth.RoleOwner))
					deps.Customers.MountOwnerRoutes(r)
				})
			})
			r.Route("/sales", deps.Sales.MountRoutes)

			r.Route("/expenses", func(r chi.Router) {
				r.Use(deps.AuthGuard.RequireRole(auth.RoleOwner))
				deps.Expenses.MountOwnerRoutes(r)
			})

			r.Route("/reports", func(r chi.Router) {
				deps.Reports.MountRoutes(r)
				r.Group(func(r chi.Router) {
					r.Use(deps.AuthGuard.RequireRole(auth.RoleOwner))
					deps.Reports.MountOwnerRoutes(r)
				})
			})

			if deps.Jobs != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(deps.AuthGuard.RequireRole(auth.RoleOwner))
					deps.Jobs.MountRoutes(r)
				})
			}
		})
	})

	return r
}

func healthz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "db": "ok"}
		code := http.StatusOK
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				status["status"] = "degraded"
				status["db"] = "unreachable"
				code = http.StatusServiceUnavailable
			}
		}
		httpx.JSON(w, code, status)
	}
}
