package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/auth"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/chat"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/config"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/httputil"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/types"
)

// Handler holds dependencies for the gateway HTTP handlers.
type Handler struct {
	svc   *chat.Service
	users auth.UserStore
	cfg   func() *config.Config
}

func NewHandler(svc *chat.Service, users auth.UserStore, cfg func() *config.Config) *Handler {
	return &Handler{svc: svc, users: users, cfg: cfg}
}

// ChatMessages handles POST /api/v1/pub/agent/users/{userID}/chat/messages.
// The allow-list check runs in middleware before this handler.
func (h *Handler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	userID := chi.URLParam(r, "userID")
	conversationID := r.URL.Query().Get("conversationId")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteValidationError(w, reqID, httputil.ValidationDetail{
			Loc:  []any{"body"},
			Msg:  "Failed to read request body",
			Type: "value_error",
		})
		return
	}
	defer r.Body.Close()

	var req types.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteValidationError(w, reqID, httputil.ValidationDetail{
			Loc:  []any{"body"},
			Msg:  err.Error(),
			Type: "json_invalid",
		})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		httputil.WriteValidationError(w, reqID, httputil.ValidationDetail{
			Loc:  []any{"body", "query"},
			Msg:  "Field required",
			Type: "missing",
		})
		return
	}

	resp := h.svc.HandleMessage(r.Context(), userID, conversationID, req)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Violation handles GET /api/v1/pub/agent/users/{userID}/appId/{appID}/violation.
// Non-allowed users get a mute deadline, everyone else an empty object. The
// route is not behind the allow-list middleware: clients poll it to learn
// whether they are muted.
func (h *Handler) Violation(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	userID := chi.URLParam(r, "userID")

	allowed, err := h.users.Allowed(r.Context(), userID)
	if err != nil {
		slog.Error("allow-list lookup failed", "error", err, "user_id", userID)
		allowed = true
	}

	body := map[string]any{}
	if !allowed {
		body["muteEndTime"] = h.cfg().Access.MuteEndTimeMs
	}
	httputil.WriteJSON(w, reqID, http.StatusOK, body)
}
