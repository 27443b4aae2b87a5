package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pos-backend/internal/auth"
)

type contextKey string

const AuthorizerKey contextKey = "authorizer"

// TokenValidator is satisfied by *auth.JWTManager
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate validates the bearer token and stores the caller's
// Authorizer in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.validator.ValidateToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if !claims.IsAuthenticated() {
			writeError(w, http.StatusForbidden, "Account suspended. Please contact administrator.")
			return
		}

		ctx := WithAuthorizer(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithAuthorizer(ctx context.Context, a auth.Authorizer) context.Context {
	return context.WithValue(ctx, AuthorizerKey, a)
}

// AuthorizerFromContext returns the caller, or auth.Anonymous when the
// request was not authenticated.
func AuthorizerFromContext(ctx context.Context) auth.Authorizer {
	if a, ok := ctx.Value(AuthorizerKey).(auth.Authorizer); ok && a != nil {
		return a
	}
	return auth.Anonymous{}
}

// RequirePermission rejects callers without perm. It must run after
// Authenticate.
func RequirePermission(perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := AuthorizerFromContext(r.Context())
			if !a.IsAuthenticated() {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !a.HasPermission(perm) {
				writeError(w, http.StatusForbidden, "Missing permission "+string(perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePortal rejects callers without access to portal.
func RequirePortal(portal auth.Portal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := AuthorizerFromContext(r.Context())
			if !a.IsAuthenticated() {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !a.HasPortalAccess(portal) {
				writeError(w, http.StatusForbidden, "No access to the "+string(portal)+" portal")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
