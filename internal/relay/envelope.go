// Package relay implements the real-time chat relay: a single hub
// goroutine that tracks live connections, keeps per-chat history in
// memory, and fans out messages to every subscriber of a chat.
package relay

import "encoding/json"

// Envelope is one JSON protocol frame exchanged over a relay connection.
// The Message payload is client-defined and passed through verbatim; the
// relay never inspects its fields.
type Envelope struct {
	Type     string            `json:"type"`
	ChatID   string            `json:"chatId"`
	Message  json.RawMessage   `json:"message,omitempty"`
	Messages []json.RawMessage `json:"messages,omitzero"`
}

const (
	envJoin    = "join"
	envMessage = "message"
	envHistory = "history"
)
