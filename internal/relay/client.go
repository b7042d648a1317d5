package relay

import (
	"context"
	"log"
	"time"

	"github.com/coder/websocket"
)

// Client is one live relay connection. Its subscription set is owned by
// the client but only ever mutated from the hub goroutine, which keeps
// every envelope's handling atomic without locks.
type Client struct {
	conn  *websocket.Conn
	hub   *Hub
	chats map[string]struct{}
	send  chan []byte
}

// NewClient wraps an accepted websocket connection. The client starts
// with no subscriptions; a reconnecting peer must re-join its chats.
func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		conn:  conn,
		hub:   hub,
		chats: make(map[string]struct{}),
		send:  make(chan []byte, 64),
	}
}

func (c *Client) join(chatID string) {
	c.chats[chatID] = struct{}{}
}

func (c *Client) subscribed(chatID string) bool {
	_, ok := c.chats[chatID]
	return ok
}

// trySend queues a frame for the write pump without blocking the hub.
// A slow client with a full buffer misses the frame; delivery is
// best-effort.
func (c *Client) trySend(frame []byte) {
	select {
	case c.send <- frame:
	default:
		log.Println("relay: dropping frame - client send buffer full")
	}
}

// ReadPump forwards inbound frames to the hub until the connection
// drops, then unregisters the client. Parsing happens on the hub
// goroutine, not here.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister <- c
		c.conn.CloseNow()
	}()

	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				log.Printf("relay: read error: %v", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		c.hub.inbound <- inbound{client: c, data: p}
	}
}

// WritePump drains the send buffer onto the wire. It exits when the hub
// closes the send channel on unregister or when the request context is
// cancelled.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := c.conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				log.Printf("relay: write error: %v", err)
				continue
			}

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "context cancelled")
			return
		}
	}
}
