package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// IdentityLoader resolves a token's user id to a live identity so that role
// or profile changes take effect without waiting for token expiry.
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, userID int64) (*Identity, error)
}

// Middleware guards routes with the session credential. The credential is
// accepted from the Authorization header or the session cookie.
type Middleware struct {
	service *Service
	loader  IdentityLoader
	logger  *slog.Logger
}

func NewMiddleware(service *Service, loader IdentityLoader, logger *slog.Logger) *Middleware {
	return &Middleware{
		service: service,
		loader:  loader,
		logger:  logger,
	}
}

// Authenticate rejects requests without a valid credential and attaches the
// resolved identity to the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "Not authorized, no token provided")
			return
		}

		claims, err := m.service.ValidateToken(token)
		if err != nil {
			m.logger.Warn("token validation failed", "error", err)
			writeAuthError(w, http.StatusUnauthorized, "Not authorized, token invalid")
			return
		}

		identity, err := m.loader.LoadIdentity(r.Context(), claims.UserID)
		if err != nil {
			m.logger.Warn("identity lookup failed", "user_id", claims.UserID, "error", err)
			writeAuthError(w, http.StatusUnauthorized, "Not authorized, user not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireRoles gates a route group to the given roles. Must run after
// Authenticate.
func (m *Middleware) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || identity == nil {
				writeAuthError(w, http.StatusUnauthorized, "Not authorized")
				return
			}

			if !identity.HasRole(roles...) {
				m.logger.Warn("access denied: role not permitted",
					"user_id", identity.ID,
					"role", identity.Role,
					"required_roles", roles)
				writeAuthError(w, http.StatusForbidden,
					"Role '"+identity.Role+"' is not authorized to access this route")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
