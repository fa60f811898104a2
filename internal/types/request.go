package types

// Message roles accepted in conversation history and upstream payloads.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound chat message body. Model and ThinkingBudget are
// optional; a nil budget means "unset", while an explicit 0 means "disabled"
// and is still forwarded upstream.
type ChatRequest struct {
	Query          string `json:"query"`
	Model          string `json:"model,omitempty"`
	ThinkingBudget *int   `json:"thinking_budget,omitempty"`
}

// CompletionPayload is the request body sent to the upstream completion API.
type CompletionPayload struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	ThinkingBudget *int      `json:"thinking_budget,omitempty"`
}
