package service

import (
	"sync"

	"github.com/mammyai/chat-gateway/internal/domain"
)

// MessagePredicate selects messages for conditional history mutations
type MessagePredicate func(domain.ChatMessage) bool

// IsAssistant matches assistant-role messages
func IsAssistant(m domain.ChatMessage) bool { return m.Role == domain.RoleAssistant }

// IsTool matches tool-role messages
func IsTool(m domain.ChatMessage) bool { return m.Role == domain.RoleTool }

// HistoryStore owns the ordered message sequence of the active session.
// Every mutation notifies subscribers with an immutable snapshot. The epoch
// counter advances on every wholesale replacement, letting a streaming run
// detect that the history it was folding into has been discarded.
type HistoryStore struct {
	mu        sync.Mutex
	messages  []domain.ChatMessage
	epoch     uint64
	nextSub   int
	listeners map[int]func([]domain.ChatMessage)
}

// NewHistoryStore creates an empty history store
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{listeners: make(map[int]func([]domain.ChatMessage))}
}

// Append adds a message to the end of the sequence
func (h *HistoryStore) Append(msg domain.ChatMessage) {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.notifyLocked()
}

// ReplaceLast swaps the last message for newMsg when the last message
// matches pred. Returns whether a replacement happened.
func (h *HistoryStore) ReplaceLast(pred MessagePredicate, newMsg domain.ChatMessage) bool {
	h.mu.Lock()
	n := len(h.messages)
	if n == 0 || !pred(h.messages[n-1]) {
		h.mu.Unlock()
		return false
	}
	h.messages[n-1] = newMsg
	h.notifyLocked()
	return true
}

// MergeContentIntoLast appends item to the last message's content when the
// last message matches pred, else appends a new message of the given role
// wrapping only the item.
func (h *HistoryStore) MergeContentIntoLast(pred MessagePredicate, role domain.MessageRole, item domain.MessageContent) {
	h.mu.Lock()
	n := len(h.messages)
	if n > 0 && pred(h.messages[n-1]) {
		last := h.messages[n-1]
		content := make([]domain.MessageContent, len(last.Content), len(last.Content)+1)
		copy(content, last.Content)
		last.Content = append(content, item)
		h.messages[n-1] = last
	} else {
		h.messages = append(h.messages, domain.ChatMessage{
			Role:    role,
			Content: []domain.MessageContent{item},
		})
	}
	h.notifyLocked()
}

// EnsureTrailingAssistantPlaceholder appends an empty assistant message when
// the sequence does not already end with one, so incremental text folding
// always has a target.
func (h *HistoryStore) EnsureTrailingAssistantPlaceholder() {
	h.mu.Lock()
	if n := len(h.messages); n > 0 && h.messages[n-1].Role == domain.RoleAssistant {
		h.mu.Unlock()
		return
	}
	h.messages = append(h.messages, domain.ChatMessage{Role: domain.RoleAssistant, Content: []domain.MessageContent{}})
	h.notifyLocked()
}

// Reset clears the sequence and advances the epoch
func (h *HistoryStore) Reset() {
	h.ReplaceAll(nil)
}

// ReplaceAll swaps in a whole new sequence and advances the epoch.
// Used on session switch and history load.
func (h *HistoryStore) ReplaceAll(messages []domain.ChatMessage) {
	h.mu.Lock()
	h.messages = append([]domain.ChatMessage(nil), messages...)
	h.epoch++
	h.notifyLocked()
}

// Snapshot returns a copy of the current sequence
func (h *HistoryStore) Snapshot() []domain.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.ChatMessage(nil), h.messages...)
}

// Last returns the final message, if any
func (h *HistoryStore) Last() (domain.ChatMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) == 0 {
		return domain.ChatMessage{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Len returns the number of messages
func (h *HistoryStore) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Epoch returns the current replacement generation
func (h *HistoryStore) Epoch() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.epoch
}

// Subscribe registers fn to receive a snapshot after every mutation.
// The returned function unsubscribes.
func (h *HistoryStore) Subscribe(fn func([]domain.ChatMessage)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// notifyLocked snapshots and fans out to subscribers, releasing the lock
// before any listener runs.
func (h *HistoryStore) notifyLocked() {
	snapshot := append([]domain.ChatMessage(nil), h.messages...)
	listeners := make([]func([]domain.ChatMessage), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
