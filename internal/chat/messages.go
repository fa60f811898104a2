package chat

import (
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/types"
)

// BuildMessages assembles the ordered message list sent upstream. The result
// always begins with exactly one system message and ends with the current
// query as the final user message; replaying the same query against the same
// context never duplicates the trailing message.
func BuildMessages(systemPrompt, query string, context []types.Message) []types.Message {
	messages := make([]types.Message, len(context))
	copy(messages, context)

	if len(messages) == 0 || messages[0].Role != types.RoleSystem {
		messages = []types.Message{
			{Role: types.RoleSystem, Content: systemPrompt},
			{Role: types.RoleUser, Content: query},
		}
	}

	if messages[len(messages)-1].Content != query {
		messages = append(messages, types.Message{Role: types.RoleUser, Content: query})
	}

	return messages
}

// BuildPayload builds the upstream request body. A nil budget is omitted;
// an explicit 0 is forwarded as-is (it means "explicitly disabled").
func BuildPayload(model string, messages []types.Message, thinkingBudget *int) types.CompletionPayload {
	return types.CompletionPayload{
		Model:          model,
		Messages:       messages,
		ThinkingBudget: thinkingBudget,
	}
}
