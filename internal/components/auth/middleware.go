package auth

import (
	"context"
	"net/http"

	"github.com/authgate/authgate/internal/shared/cookie"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const userKey contextKey = "user"

// UserFromContext extracts the authenticated user from the request context.
// It returns nil outside of RequireSession-protected routes.
func UserFromContext(ctx context.Context) *UserOut {
	user, _ := ctx.Value(userKey).(*UserOut)
	return user
}

// RequireSession validates the session cookie on every request and injects
// the resolved user into the request context. Requests without a valid
// session get a JSON 401; the client clears its cached user on that signal.
func RequireSession(service servicer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cookie.GetToken(r, service.CookieSecret())
			if err != nil {
				writeError(w, ErrSessionInvalid)
				return
			}

			user, err := service.VerifySession(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
