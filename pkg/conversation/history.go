package conversation

import (
	"sync"
	"unicode/utf8"
)

// Role tags the author of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MaxContentSize bounds the aggregate content size kept by Prune
const MaxContentSize = 2000

// Message is a single role-tagged conversation entry
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the ordered message list of one agent
type History struct {
	messages []Message
	limit    int
	mu       sync.RWMutex
}

// New creates a history seeded with the system message
func New(systemMessage string) *History {
	return NewWithLimit(systemMessage, MaxContentSize)
}

// NewWithLimit creates a history with a custom pruning threshold.
// A non-positive limit falls back to MaxContentSize.
func NewWithLimit(systemMessage string, limit int) *History {
	if limit <= 0 {
		limit = MaxContentSize
	}
	return &History{
		messages: []Message{{Role: RoleSystem, Content: systemMessage}},
		limit:    limit,
	}
}

// Append adds a message to the end of the history
func (h *History) Append(role Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, Message{Role: role, Content: content})
}

// ReplaceSystemMessage overwrites the system message in place
func (h *History) ReplaceSystemMessage(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages[0] = Message{Role: RoleSystem, Content: text}
}

// Prune evicts messages right after the system message while the aggregate
// content size exceeds the limit. It returns the number of evicted messages.
//
// A single oversized message is never evicted once it is the only message
// left after the system message, so the limit can still be exceeded.
func (h *History) Prune() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := contentSize(h.messages)
	evicted := 0
	for total > h.limit && len(h.messages) > 2 {
		total -= utf8.RuneCountInString(h.messages[1].Content)
		h.messages = append(h.messages[:1], h.messages[2:]...)
		evicted++
	}
	return evicted
}

// Messages returns a copy of the history
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// SystemMessage returns the current system message text
func (h *History) SystemMessage() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.messages[0].Content
}

// Len returns the number of messages including the system message
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Size returns the aggregate content length of all messages in characters
func (h *History) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return contentSize(h.messages)
}

// Limit returns the pruning threshold
func (h *History) Limit() int {
	return h.limit
}

// contentSize counts characters, not bytes.
func contentSize(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += utf8.RuneCountInString(m.Content)
	}
	return total
}
