package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/tasknest/tasknest"
	"github.com/tasknest/tasknest/session"
)

// SessionCookieName is the cookie the guard reads the session token from.
const SessionCookieName = "session_token"

type sessionContextKey struct{}

// SessionFromContext returns the session injected by [Guard], if any.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok
}

// Guard rejects requests that do not carry a valid session cookie with 401.
// A session-store fault is not an authentication verdict and surfaces as 500.
// On success the validated session is placed in the request context.
func Guard(engine *tasknest.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := engine.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, tasknest.ErrUnauthenticated) {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				} else {
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
