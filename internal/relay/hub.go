package relay

import (
	"context"
	"encoding/json"
	"log"
)

// Registration pairs a client with a signalling channel so the transport
// handler can wait until the hub has picked it up.
type Registration struct {
	Client *Client
	Done   chan struct{}
}

type inbound struct {
	client *Client
	data   []byte
}

// Hub is the relay engine and connection registry in one: a single
// goroutine owns the client set and the history store, so envelope
// handling is serialized end to end (parse, mutate, broadcast) with no
// locks. Construct one per server, or per test.
type Hub struct {
	clients    map[*Client]struct{}
	history    *History
	Register   chan Registration
	Unregister chan *Client
	inbound    chan inbound
}

// NewHub returns a new instance of Hub with an empty history store.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		history:    NewHistory(),
		Register:   make(chan Registration),
		Unregister: make(chan *Client),
		inbound:    make(chan inbound, 1024),
	}
}

// Run manages registration, disconnects, and envelope dispatch. It
// returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case reg := <-h.Register:
			h.clients[reg.Client] = struct{}{}
			close(reg.Done)

		case client := <-h.Unregister:
			// Idempotent: a client may be unregistered again during
			// teardown races. Only the first removal closes the send
			// channel, and no broadcast started afterwards can target it.
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case in := <-h.inbound:
			h.handle(in.client, in.data)

		case <-ctx.Done():
			log.Printf("relay: context cancelled: %v", ctx.Err())
			return
		}
	}
}

// handle processes one inbound envelope. Malformed input is logged and
// dropped; unknown envelope types and missing required fields are
// silently ignored. Nothing here terminates the connection.
func (h *Hub) handle(c *Client, data []byte) {
	// A frame can still sit on the inbound queue when its client's
	// unregister is processed first; that client's send channel is
	// already closed, so its envelopes must be dropped here.
	if _, ok := h.clients[c]; !ok {
		return
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("relay: failed to parse envelope: %v", err)
		return
	}

	switch env.Type {
	case envJoin:
		if env.ChatID == "" {
			return
		}
		c.join(env.ChatID)

		// History goes only to the joining client.
		messages := h.history.Recent(env.ChatID)
		if messages == nil {
			messages = []json.RawMessage{}
		}
		frame, err := json.Marshal(Envelope{
			Type:     envHistory,
			ChatID:   env.ChatID,
			Messages: messages,
		})
		if err != nil {
			log.Printf("relay: failed to encode history: %v", err)
			return
		}
		c.trySend(frame)

	case envMessage:
		if env.ChatID == "" || len(env.Message) == 0 {
			return
		}

		// Append happens-before broadcast, so a concurrent join sees
		// either the full message or none of it. Joining is not a gate:
		// a message for a chat the sender never joined is still accepted.
		h.history.Append(env.ChatID, env.Message)

		frame, err := json.Marshal(Envelope{
			Type:    envMessage,
			ChatID:  env.ChatID,
			Message: env.Message,
		})
		if err != nil {
			log.Printf("relay: failed to encode broadcast: %v", err)
			return
		}

		// Every subscribed client gets the frame, the sender included.
		for client := range h.clients {
			if client.subscribed(env.ChatID) {
				client.trySend(frame)
			}
		}
	}
}
