package customers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/elman-pos/elman/internal/platform/httpx"
)

// Handler manages customer endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the customer routes available to all signed-in staff.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

// MountOwnerRoutes registers the owner-only customer mutations.
func (h *Handler) MountOwnerRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("list customers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
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
		h.logger.Error("create customer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid customer id", httpx.ErrValidation))
		return
	}
	var req UpdateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.service.Update(r.Context(), id, req); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: customer not found", httpx.ErrNotFound))
			return
		}
		h.logger.Error("update customer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
