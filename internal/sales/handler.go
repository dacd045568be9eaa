package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/elman-pos/elman/internal/platform/httpx"
)

// ReceiptRenderer produces the printable PDF for a receipt.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, sale *Sale, refunds []Refund) ([]byte, error)
}

// Handler manages sale and refund endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	renderer ReceiptRenderer
	validate *validator.Validate
}

// NewHandler builds a Handler instance. renderer may be nil when PDF export
// is not configured.
func NewHandler(logger *slog.Logger, service *Service, renderer ReceiptRenderer) *Handler {
	return &Handler{logger: logger, service: service, renderer: renderer, validate: validator.New()}
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/history", h.history)
	r.Get("/{receiptRef}", h.getByReceipt)
	r.Get("/{receiptRef}/pdf", h.receiptPDF)
	r.Post("/{receiptRef}/refund", h.refund)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	result, err := h.service.CreateSale(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.History(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("sales history", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) getByReceipt(w http.ResponseWriter, r *http.Request) {
	sale, refunds, err := h.service.GetByReceipt(r.Context(), chi.URLParam(r, "receiptRef"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sale": sale, "refunds": refunds})
}

func (h *Handler) receiptPDF(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		httpx.RespondError(w, fmt.Errorf("%w: pdf rendering is not configured", httpx.ErrTransient))
		return
	}
	ref := chi.URLParam(r, "receiptRef")
	sale, refunds, err := h.service.GetByReceipt(r.Context(), ref)
	if err != nil {
		h.respondError(w, err)
		return
	}
	pdf, err := h.renderer.RenderReceipt(r.Context(), sale, refunds)
	if err != nil {
		h.logger.Error("render receipt pdf", slog.String("receipt_ref", ref), slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: pdf rendering failed", httpx.ErrTransient))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", ref+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	result, err := h.service.RefundSale(r.Context(), chi.URLParam(r, "receiptRef"), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSaleNotFound), errors.Is(err, ErrProductNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, err))
	case errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, ErrProductArchived),
		errors.Is(err, ErrItemNotOnSale):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrRefundExceedsAvailable):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrConflict, err))
	case errors.Is(err, ErrDuplicateReceiptRef):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrConflict, err))
	default:
		h.logger.Error("sales request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
