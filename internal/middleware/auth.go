package middleware

import (
	"context"
	"net/http"
	"strings"
)

type userKey string

const userIDKey userKey = "user_id"

// BearerUser extracts the bearer token from the Authorization header and
// places it in the request context as the caller's opaque user identifier.
// Token verification happens upstream (identity exchange is an external
// collaborator); this layer only needs a stable per-user key.
func BearerUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if token = strings.TrimSpace(token); token != "" {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, token))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// UserIDFromContext returns the authenticated user identifier, or "" when
// the request carried no credentials.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}
