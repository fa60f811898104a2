package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/httputil"
)

// RequireAllowed returns a chi middleware that rejects requests whose
// {userID} route parameter is not on the allow-list.
func RequireAllowed(store UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := w.Header().Get("X-Request-ID")

			userID := chi.URLParam(r, "userID")
			if userID == "" {
				httputil.WriteForbidden(w, reqID)
				return
			}

			allowed, err := store.Allowed(r.Context(), userID)
			if err != nil {
				slog.Error("allow-list lookup failed", "error", err, "user_id", userID)
				httputil.WriteInternalError(w, reqID, "访问校验失败")
				return
			}
			if !allowed {
				slog.Warn("access denied: user not on allow-list", "user_id", userID)
				httputil.WriteForbidden(w, reqID)
				return
			}

			ctx := ContextWithUser(r.Context(), &UserInfo{ID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
