package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/wg/internal/apperr"
	"github.com/dukerupert/wg/internal/auth"
)

type SessionValidator interface {
	Validate(token string) (*auth.AuthContext, error)
}

// RequireAuth validates the session cookie once per request and stores the
// result in the request context.
func RequireAuth(sessions SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}

			ac, err := sessions.Validate(cookie.Value)
			if err != nil {
				if !errors.Is(err, apperr.ErrUnauthenticated) {
					logger.Error("validate session", "error", err)
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), *ac)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
