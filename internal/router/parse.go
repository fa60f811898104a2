package router

import "strings"

const thinkingKeyword = "thinking"

// ParseResult is the outcome of running a query through the alias grammar.
type ParseResult struct {
	Query string // remaining query text with the prefix consumed
	Model string // upstream model id, empty when no alias matched
	// Thinking is true when the alias supports deep thinking and the query
	// carried the "thinking" keyword right after the alias.
	Thinking bool
}

// IsListCommand reports whether the query is exactly the "list" command.
// The exact match takes precedence over any alias prefix rule.
func IsListCommand(query string) bool {
	return strings.EqualFold(strings.TrimSpace(query), "list")
}

// ParsePrefix strips a recognized alias prefix from the query and resolves
// the upstream model. Aliases are tried in declaration order; the first whose
// key is a case-insensitive prefix of the query wins. A single ":" or space
// separator after the key is consumed. When the alias supports deep thinking
// and the remainder starts with the "thinking" keyword, that keyword is
// consumed too. If no alias matches, the query is returned unchanged with an
// empty model so the caller keeps its previously selected model.
func (r *Registry) ParsePrefix(query string) ParseResult {
	if IsListCommand(query) {
		return ParseResult{Query: query}
	}

	r.mu.RLock()
	aliases := r.aliases
	r.mu.RUnlock()

	lower := strings.ToLower(query)
	for _, a := range aliases {
		key := strings.ToLower(a.Key)
		if !strings.HasPrefix(lower, key) {
			continue
		}

		remain := query[len(key):]
		if len(remain) > 0 && (remain[0] == ':' || remain[0] == ' ') {
			remain = strings.TrimSpace(remain[1:])
		} else {
			remain = strings.TrimSpace(remain)
		}

		thinking := false
		if a.DeepThinking && strings.HasPrefix(strings.ToLower(remain), thinkingKeyword) {
			remain = strings.TrimSpace(remain[len(thinkingKeyword):])
			thinking = true
		}

		return ParseResult{Query: remain, Model: a.Model, Thinking: thinking}
	}

	return ParseResult{Query: query}
}
