package history

import (
	"sync"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/types"
)

// conversation is the append-only message log for one conversation key.
// Its mutex serializes appends and reads for that key only, so different
// keys proceed fully in parallel.
type conversation struct {
	mu       sync.Mutex
	messages []types.Message
}

// Store keeps per-conversation message history for the lifetime of the
// process. Lookups auto-create an empty conversation on first reference.
// Storage is unbounded; reads are capped by the window passed to Recent.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*conversation),
	}
}

// get returns (or lazily creates) the conversation for a key.
func (s *Store) get(key string) *conversation {
	s.mu.RLock()
	c, ok := s.conversations[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring write lock
	if c, ok := s.conversations[key]; ok {
		return c
	}
	c = &conversation{}
	s.conversations[key] = c
	return c
}

// Append adds a message to the conversation. Appends for the same key are
// serialized; messages are immutable once appended.
func (s *Store) Append(key string, msg types.Message) {
	c := s.get(key)
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

// Recent returns the last window entries of the conversation with
// system-role entries excluded from that slice. The result is a copy.
func (s *Store) Recent(key string, window int) []types.Message {
	c := s.get(key)
	c.mu.Lock()
	defer c.mu.Unlock()

	start := len(c.messages) - window
	if window <= 0 || start < 0 {
		start = 0
	}

	out := make([]types.Message, 0, len(c.messages)-start)
	for _, m := range c.messages[start:] {
		if m.Role == types.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Len reports the stored message count for a key.
func (s *Store) Len(key string) int {
	c := s.get(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
