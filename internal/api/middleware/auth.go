package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/beforeafter/internal/api/apierr"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/services/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionValidator resolves a device token
type SessionValidator interface {
	ValidateSession(token string) (*auth.Session, error)
}

// Auth requires a valid device token
func Auth(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := validator.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetSession returns the session or panics
func MustGetSession(ctx context.Context) *auth.Session {
	session := GetSession(ctx)
	if session == nil {
		panic("no session in context - auth middleware not applied?")
	}
	return session
}

// MustGetIdentity returns the identity scores are kept for on the calling device
func MustGetIdentity(ctx context.Context) model.Identity {
	return MustGetSession(ctx).Identity()
}
