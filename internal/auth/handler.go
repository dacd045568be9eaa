package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/elman-pos/elman/internal/platform/httpx"
	"github.com/elman-pos/elman/internal/shared"
)

// Handler exposes the login endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/login", h.login)
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	resp, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("login failed", slog.String("username", req.Username))
		httpx.RespondError(w, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized))
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Me returns the identity behind the presented token. Mounted inside the
// authenticated group.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: missing bearer token", httpx.ErrUnauthorized))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"id":       actor.ID,
		"username": actor.Username,
		"role":     actor.Role,
	})
}

// MountUserRoutes registers the owner-only account management routes.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Put("/{id}/password", h.resetPassword)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	user, err := h.service.ProvisionUser(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrConflict, err))
			return
		}
		h.logger.Error("create user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid user id", httpx.ErrValidation))
		return
	}
	var req ResetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.service.ResetPassword(r.Context(), id, req.Password); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: user id %d", httpx.ErrNotFound, id))
			return
		}
		h.logger.Error("reset password", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
