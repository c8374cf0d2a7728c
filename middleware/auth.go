package middleware

import (
	"context"
	"net/http"
	"strings"

	"projecthub_server/services"
)

type contextKey string

const userIDContextKey contextKey = "userId"

// Auth resolves the bearer token against the Sessions table and stashes
// the caller's user id in the request context. Token issuance happens in
// the platform's auth service; unknown and expired tokens both get a 401.
func Auth(directory services.Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, `{"error": "Authentication required"}`, http.StatusUnauthorized)
				return
			}

			session, err := directory.GetSession(r.Context(), token)
			if err != nil {
				http.Error(w, `{"error": "Invalid or expired session"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// UserIDFromContext retrieves the authenticated caller's user id.
func UserIDFromContext(r *http.Request) string {
	userID, _ := r.Context().Value(userIDContextKey).(string)
	return userID
}
