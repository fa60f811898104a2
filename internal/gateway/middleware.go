package gateway

import (
	"net/http"
	"strings"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/config"
)

// AndroidOnly rejects any request whose User-Agent does not identify an
// Android client. The toggle is re-read per request so hot reloads apply.
func AndroidOnly(cfg func() *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg().Server.AndroidOnly {
				next.ServeHTTP(w, r)
				return
			}

			ua := strings.ToLower(r.Header.Get("User-Agent"))
			if !strings.Contains(ua, "android") {
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Access Forbidden"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
