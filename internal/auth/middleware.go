package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/mkiprop/loanbook/internal/domain"
	"github.com/mkiprop/loanbook/internal/repository"
	"github.com/mkiprop/loanbook/pkg/response"
)

type contextKey string

const userContextKey contextKey = "current_user"

// UserFromContext returns the authenticated user stored by Middleware.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

// Middleware rejects requests without a valid session cookie resolving to an
// existing user row.
func Middleware(sessions *SessionManager, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				response.Unauthorized(w, "Not authenticated")
				return
			}

			username, err := sessions.Verify(cookie.Value)
			if err != nil {
				if errors.Is(err, ErrExpiredToken) {
					response.Unauthorized(w, "Session expired")
					return
				}
				response.Unauthorized(w, "Invalid session token")
				return
			}

			user, err := users.GetByUsername(r.Context(), username)
			if err != nil {
				response.Unauthorized(w, "User not found")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
