package shared

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/elman-pos/elman/internal/platform/httpx"
)

// AuditHandler exposes the audit trail to owners.
type AuditHandler struct {
	logger *slog.Logger
	audit  *AuditLogger
}

// NewAuditHandler builds an AuditHandler.
func NewAuditHandler(logger *slog.Logger, audit *AuditLogger) *AuditHandler {
	return &AuditHandler{logger: logger, audit: audit}
}

// MountRoutes registers the audit trail routes.
func (h *AuditHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *AuditHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.audit.List(r.Context(), r.URL.Query().Get("entity"), limit)
	if err != nil {
		h.logger.Error("list audit trail", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}
