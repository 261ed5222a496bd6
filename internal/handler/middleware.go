package handler

import (
	"context"
	"net/http"

	"github.com/msomdec/notemap/internal/service"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserFromContext returns the authenticated user's id stored by
// RequireAuth, or "" if the request was not authenticated.
func UserFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// RequireAuth validates the auth cookie and stores the user id on the
// request context. Requests without a valid token get 401.
func RequireAuth(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("auth_token")
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}
		userID, err := auth.ValidateToken(cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SecurityHeaders sets standard security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
