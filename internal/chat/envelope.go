package chat

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/config"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/types"
)

// NewEnvelope builds the uniform outward response. The debug suffix naming
// the model and conversation id is always appended to the answer before
// return. When the caller supplied no conversation id, the envelope carries
// a fresh random token; note the history store falls back to the user id
// instead, so the two can differ for id-less requests (kept for caller
// compatibility).
func NewEnvelope(cfg config.ChatConfig, model, userID, query, answer, conversationID string, warning bool) types.ChatResponse {
	suffixConv := conversationID
	if suffixConv == "" {
		suffixConv = "none"
	}
	answer += fmt.Sprintf("\n\n `model: %s` | `conversationId: %s`", model, suffixConv)

	if conversationID == "" {
		conversationID = randomToken(12)
	}

	return types.ChatResponse{
		Type:           "json",
		MessageID:      uuid.NewString(),
		ConversationID: conversationID,
		AppID:          cfg.AppID,
		Model:          model,
		ModelProvider:  cfg.ProviderName,
		UserID:         userID,
		Answer:         answer,
		CreatedDate:    time.Now().Unix(),
		Query:          query,
		Warning:        warning,
	}
}

// randomToken returns n random bytes hex-encoded.
func randomToken(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
