package types

// ChatResponse is the uniform outward envelope. Every reachable path returns
// this shape; denial and upstream failures are carried in Answer rather than
// as an HTTP error, so existing callers inspect text, not status codes.
type ChatResponse struct {
	Type           string `json:"type"`
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	AppID          string `json:"appId"`
	Model          string `json:"model"`
	ModelProvider  string `json:"modelProvider"`
	UserID         string `json:"userId"`
	Answer         string `json:"answer"`
	CreatedDate    int64  `json:"createdDate"`
	Query          string `json:"query"`
	Warning        bool   `json:"warning"`
}
