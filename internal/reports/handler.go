package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/elman-pos/elman/internal/platform/httpx"
)

// SummaryRenderer produces the printable PDF of the inventory summary.
type SummaryRenderer interface {
	RenderInventorySummary(ctx context.Context, summary *InventorySummary, lowStock []LowStockRow) ([]byte, error)
}

// Handler manages report endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	renderer SummaryRenderer
}

// NewHandler builds a Handler instance. renderer may be nil when PDF export
// is not configured.
func NewHandler(logger *slog.Logger, service *Service, renderer SummaryRenderer) *Handler {
	return &Handler{logger: logger, service: service, renderer: renderer}
}

// MountRoutes registers the report routes available to all signed-in staff.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sales", h.sales)
	r.Get("/top-products", h.topProducts)
	r.Get("/low-stock", h.lowStock)
	r.Get("/inventory-summary", h.inventorySummary)
	r.Get("/inventory-summary/pdf", h.inventoryPDF)
}

// MountOwnerRoutes registers the owner-only report routes.
func (h *Handler) MountOwnerRoutes(r chi.Router) {
	r.Get("/profit", h.profit)
	r.Get("/customer-insights", h.customerInsights)
}

// parseRange reads from/to query params (YYYY-MM-DD), defaulting to the last
// 30 days. The upper bound is exclusive and advanced by one day so a "to"
// date includes that whole day.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30).Truncate(24 * time.Hour)
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", v)
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", v)
		}
		to = t.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("date range is empty")
	}
	return from, to, nil
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	rows, err := h.service.Sales(r.Context(), r.URL.Query().Get("period"), from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) profit(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	report, err := h.service.Profit(r.Context(), from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.service.TopProducts(r.Context(), from, to, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) customerInsights(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.CustomerInsights(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.LowStock(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) inventorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.InventorySummary(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) inventoryPDF(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		httpx.RespondError(w, fmt.Errorf("%w: pdf rendering is not configured", httpx.ErrTransient))
		return
	}
	summary, err := h.service.InventorySummary(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	lowStock, err := h.service.LowStock(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	pdf, err := h.renderer.RenderInventorySummary(r.Context(), summary, lowStock)
	if err != nil {
		h.logger.Error("render inventory pdf", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: pdf rendering failed", httpx.ErrTransient))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="inventory-summary.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBadPeriod) {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	h.logger.Error("reports request failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
