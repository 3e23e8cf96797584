package middleware

import (
	"net/http"

	"github.com/bloghub/backend/internal/models"
)

// RequireRole gates an already-authenticated request on the user's role.
// It must run after AuthMiddleware; a missing context user is an ordering
// error on our side, not a client failure, and is reported as 500.
func RequireRole(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				respondError(w, http.StatusInternalServerError, "no authenticated user in context")
				return
			}

			if user.Role != requiredRole {
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
