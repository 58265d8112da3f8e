package middleware

import (
	"context"
	"net/http"

	"chessconnect/api/internal/utils"
)

const userIDKey contextKey = "user_id"

// RequireAuth rejects requests without a valid session token and stores the
// caller's user id in the context.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := utils.VerifyToken(r, secret)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid session token")
				return
			}
			userID, err := utils.SessionUserID(claims)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, "unauthenticated", "Invalid session token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns 0 when the request was not authenticated.
func UserIDFromContext(ctx context.Context) uint {
	id, _ := ctx.Value(userIDKey).(uint)
	return id
}
