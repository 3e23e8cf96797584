// Package middleware provides the authentication and role-gating middlewares
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bloghub/backend/internal/auth/service"
	"github.com/bloghub/backend/internal/models"
	"github.com/bloghub/backend/internal/repositories"
)

type contextKey string

const userKey contextKey = "user"

// UserFinder is the interface that wraps the user lookup needed by the auth middleware.
//
// GetByID retrieves a user by ID with the password hash excluded.
// If no user with such ID exists, repositories.ErrUserNotFound is returned.
type UserFinder interface {
	GetByID(ctx context.Context, userID int) (*models.User, error)
}

// AuthMiddleware validates the bearer token and binds the resolved user to the
// request context. The request is rejected with 401 when the token is missing,
// malformed, invalid or expired, and with 404 when the token's subject no
// longer exists in the store.
func AuthMiddleware(tokens *service.TokenService, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from the Authorization header
			var token string
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// Expected format: "Bearer <token>"
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = parts[1]
				}
			}

			if token == "" {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			// Verify signature and expiry, extract the subject user ID
			userID, err := tokens.Verify(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			// Resolve the subject in the credential store
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, repositories.ErrUserNotFound) {
					respondError(w, http.StatusNotFound, "no user found with this id")
					return
				}
				respondError(w, http.StatusInternalServerError, "failed to resolve user")
				return
			}

			// Bind the resolved user to the request context
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the authenticated user from context
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// respondError writes a JSON error envelope
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"status":"error","message":"` + message + `"}`))
}
