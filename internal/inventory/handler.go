package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/elman-pos/elman/internal/platform/httpx"
)

// Handler manages stock adjustment endpoints, mounted under /api/products.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountOwnerRoutes registers the owner-only stock routes: adjustments and
// the per-product ledger history.
func (h *Handler) MountOwnerRoutes(r chi.Router) {
	r.Get("/{id}/history", h.history)
	r.Post("/{id}/restock", h.restock)
	r.Post("/{id}/decrease", h.decrease)
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.service.Restock)
}

func (h *Handler) decrease(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.service.DecreaseStock)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, AdjustmentRequest) error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid product id", httpx.ErrValidation))
		return
	}
	var req AdjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := op(r.Context(), id, req); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid product id", httpx.ErrValidation))
		return
	}
	entries, err := h.service.History(r.Context(), id)
	if err != nil {
		h.logger.Error("stock history", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: product not found", httpx.ErrNotFound))
	case errors.Is(err, ErrInsufficientStock):
		httpx.RespondError(w, fmt.Errorf("%w: insufficient stock to remove that quantity", httpx.ErrConflict))
	default:
		h.logger.Error("stock adjustment failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
