package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elman-pos/elman/internal/platform/httpx"
	"github.com/elman-pos/elman/internal/shared"
)

// Middleware guards routes with bearer-token authentication and role checks.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAuth rejects requests without a valid bearer token and stores the
// actor in the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			httpx.RespondError(w, fmt.Errorf("%w: missing bearer token", httpx.ErrUnauthorized))
			return
		}
		actor, err := m.Service.VerifyToken(token)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUnauthorized, err))
			return
		}
		ctx := shared.ContextWithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only actors whose role is in the given set. It must be
// mounted inside RequireAuth.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := shared.ActorFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, fmt.Errorf("%w: missing bearer token", httpx.ErrUnauthorized))
				return
			}
			for _, role := range roles {
				if actor.Role == string(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("role denied",
					slog.String("username", actor.Username),
					slog.String("role", actor.Role),
					slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, fmt.Errorf("%w: role %s not allowed", httpx.ErrForbidden, actor.Role))
		})
	}
}

// tokenFromRequest reads the token from the Authorization header, falling
// back to the token query parameter so PDF links can embed it.
func tokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
