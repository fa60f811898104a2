package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/config"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/httputil"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/telemetry"
)

const (
	headerRateLimitRequests          = "X-RateLimit-Limit-Requests"
	headerRateLimitRemainingRequests = "X-RateLimit-Remaining-Requests"
	headerRateLimitReset             = "X-RateLimit-Reset-Requests"
	headerRetryAfter                 = "Retry-After"
)

// Middleware returns chi middleware enforcing the per-user sliding-window
// request limit. The limit and window are re-read from config on every
// request so hot reloads take effect without a restart.
func Middleware(limiter *Limiter, cfg func() *config.Config, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rl := cfg().RateLimit
			if !rl.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			reqID := w.Header().Get("X-Request-ID")

			userID := chi.URLParam(r, "userID")
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, _ := limiter.Check(r.Context(), "user:"+userID, rl.Limit, rl.Window)

			w.Header().Set(headerRateLimitRequests, strconv.FormatInt(rl.Limit, 10))
			w.Header().Set(headerRateLimitRemainingRequests, strconv.FormatInt(result.Remaining, 10))
			w.Header().Set(headerRateLimitReset, result.ResetAt.Format(time.RFC3339))

			if !result.Allowed {
				slog.Warn("rate limit exceeded",
					"request_id", reqID,
					"user_id", userID,
					"limit", rl.Limit,
					"window", rl.Window,
				)
				if metrics != nil {
					metrics.RecordRateLimited(userID)
				}
				w.Header().Set(headerRetryAfter, strconv.Itoa(int(result.RetryAfter.Seconds())))
				httputil.WriteRateLimitError(w, reqID,
					fmt.Sprintf("请求过于频繁，每 %s 最多 %d 次", rl.Window, rl.Limit))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
