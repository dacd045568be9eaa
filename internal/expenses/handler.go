package expenses

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

// VoucherRenderer produces the printable PDF for an expense voucher.
type VoucherRenderer interface {
	RenderExpense(ctx context.Context, e *Expense) ([]byte, error)
}

// Handler manages expense endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	renderer VoucherRenderer
	validate *validator.Validate
}

// NewHandler builds a Handler instance. renderer may be nil when PDF export
// is not configured.
func NewHandler(logger *slog.Logger, service *Service, renderer VoucherRenderer) *Handler {
	return &Handler{logger: logger, service: service, renderer: renderer, validate: validator.New()}
}

// MountOwnerRoutes registers the expense routes. The whole surface is
// owner-only, reads included.
func (h *Handler) MountOwnerRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/pdf", h.pdf)
	r.Post("/", h.create)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid expense id", httpx.ErrValidation))
		return
	}
	expense, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		httpx.RespondError(w, fmt.Errorf("%w: pdf rendering is not configured", httpx.ErrTransient))
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid expense id", httpx.ErrValidation))
		return
	}
	expense, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	pdf, err := h.renderer.RenderExpense(r.Context(), expense)
	if err != nil {
		h.logger.Error("render expense pdf", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: pdf rendering failed", httpx.ErrTransient))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fmt.Sprintf("expense-%d.pdf", id)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	id, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create expense", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, err))
		return
	}
	h.logger.Error("expenses request failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
