package relay

import "encoding/json"

// History is the per-chat message log. It lives for the life of the
// process and is only ever touched from the hub goroutine, so no locking
// is needed. Growth is unbounded; acceptable at demo scale.
type History struct {
	chats map[string][]json.RawMessage
}

// NewHistory returns an empty history store.
func NewHistory() *History {
	return &History{chats: make(map[string][]json.RawMessage)}
}

// Append adds a message at the end of the chat's log, creating the log on
// first use. Order of appends is arrival order at the hub.
func (h *History) Append(chatID string, message json.RawMessage) {
	h.chats[chatID] = append(h.chats[chatID], message)
}

// Recent returns the full stored log for a chat, oldest first, or an
// empty slice if the chat has never been used.
func (h *History) Recent(chatID string) []json.RawMessage {
	return h.chats[chatID]
}
