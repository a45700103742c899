package middleware

import (
	"net/http"

	"servicehub/internal/domain"

	"go.uber.org/zap"
)

// RequireRole ensures the authenticated user holds one of the allowed
// roles. It must run after AuthMiddleware.
func RequireRole(logger *zap.Logger, allowed ...domain.Role) func(http.Handler) http.Handler {
	names := make([]string, len(allowed))
	for i, r := range allowed {
		names[i] = string(r)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				logger.Warn("User not found in context")
				RespondWithError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !user.HasRole(allowed...) {
				logger.Warn("User role not authorized",
					zap.String("user_id", user.ID),
					zap.String("role", string(user.Role)),
					zap.Strings("allowed_roles", names),
				)
				RespondWithError(w, http.StatusForbidden, "access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin ensures the user has admin role
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, domain.RoleAdmin)
}
