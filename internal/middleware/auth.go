package middleware

import (
	"context"
	"net/http"
	"strings"

	"servicehub/internal/domain"

	"go.uber.org/zap"
)

// TokenCookie is the http-only cookie carrying the access token
const TokenCookie = "token"

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves the identity behind a bearer token
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware requires a valid token from the token cookie or the
// Authorization header and attaches the caller's current record to the
// request context. Every token failure yields the same 401.
func AuthMiddleware(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				logger.Debug("Missing access token", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := auth.Authenticate(r.Context(), tokenString)
			if err != nil {
				logger.Debug("Token rejected", zap.Error(err))
				WriteError(w, logger, err)
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", user.ID),
				zap.String("role", string(user.Role)),
			)

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// ExtractToken returns the token from the cookie, falling back to a
// Bearer Authorization header
func ExtractToken(r *http.Request) string {
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext extracts the authenticated user from the request context
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok && user != nil
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.ID, true
}
