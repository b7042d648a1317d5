package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	return h
}

func register(t *testing.T, h *Hub) *Client {
	t.Helper()

	c := NewClient(nil, h)
	reg := Registration{Client: c, Done: make(chan struct{})}
	h.Register <- reg
	<-reg.Done

	return c
}

func sendRaw(h *Hub, c *Client, data string) {
	h.inbound <- inbound{client: c, data: []byte(data)}
}

func recvEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()

	select {
	case frame, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
		return Envelope{}
	}
}

// flush blocks until the hub has processed everything queued before it,
// by round-tripping a join on a throwaway client. Inbound handling is
// FIFO, so once the probe's history arrives, earlier envelopes are done.
func flush(t *testing.T, h *Hub) {
	t.Helper()

	probe := register(t, h)
	sendRaw(h, probe, `{"type":"join","chatId":"flush-probe"}`)
	recvEnvelope(t, probe)
	h.Unregister <- probe
}

func TestJoinEmptyChatRepliesEmptyHistory(t *testing.T) {
	h := startHub(t)
	c := register(t, h)

	sendRaw(h, c, `{"type":"join","chatId":"math-tutor-1"}`)

	env := recvEnvelope(t, c)
	assert.Equal(t, "history", env.Type)
	assert.Equal(t, "math-tutor-1", env.ChatID)
	assert.NotNil(t, env.Messages)
	assert.Empty(t, env.Messages)
}

func TestHistoryPreservesArrivalOrder(t *testing.T) {
	h := startHub(t)
	sender := register(t, h)

	for i := 0; i < 5; i++ {
		sendRaw(h, sender, fmt.Sprintf(
			`{"type":"message","chatId":"bike-sale","message":{"text":"msg-%d","senderId":"u1"}}`, i))
	}
	sendRaw(h, sender, `{"type":"message","chatId":"other-chat","message":{"text":"elsewhere"}}`)

	// A later join replays exactly the chat's messages, oldest first,
	// and nothing from any other chat.
	joiner := register(t, h)
	sendRaw(h, joiner, `{"type":"join","chatId":"bike-sale"}`)

	env := recvEnvelope(t, joiner)
	require.Equal(t, "history", env.Type)
	require.Len(t, env.Messages, 5)
	for i, raw := range env.Messages {
		assert.JSONEq(t, fmt.Sprintf(`{"text":"msg-%d","senderId":"u1"}`, i), string(raw))
	}
}

func TestBroadcastFanOutAndSelfDelivery(t *testing.T) {
	h := startHub(t)
	a := register(t, h)
	b := register(t, h)
	other := register(t, h)

	sendRaw(h, a, `{"type":"join","chatId":"math-tutor-1"}`)
	sendRaw(h, b, `{"type":"join","chatId":"math-tutor-1"}`)
	sendRaw(h, other, `{"type":"join","chatId":"dorm-swap"}`)
	recvEnvelope(t, a)
	recvEnvelope(t, b)
	recvEnvelope(t, other)

	sendRaw(h, a, `{"type":"message","chatId":"math-tutor-1","message":{"text":"hi","senderId":"u1"}}`)

	// Both subscribers receive the broadcast, the sender included.
	for _, c := range []*Client{a, b} {
		env := recvEnvelope(t, c)
		assert.Equal(t, "message", env.Type)
		assert.Equal(t, "math-tutor-1", env.ChatID)
		assert.JSONEq(t, `{"text":"hi","senderId":"u1"}`, string(env.Message))
	}

	flush(t, h)
	assert.Empty(t, other.send, "non-subscriber must not receive the broadcast")
}

func TestMessageWithoutJoinIsAcceptedAndStored(t *testing.T) {
	h := startHub(t)
	sender := register(t, h)

	// Join is not an authorization gate; a first message creates the chat.
	sendRaw(h, sender, `{"type":"message","chatId":"fresh-chat","message":{"text":"first"}}`)

	joiner := register(t, h)
	sendRaw(h, joiner, `{"type":"join","chatId":"fresh-chat"}`)

	env := recvEnvelope(t, joiner)
	require.Len(t, env.Messages, 1)
	assert.JSONEq(t, `{"text":"first"}`, string(env.Messages[0]))

	// The sender itself never joined, so it got no broadcast back.
	flush(t, h)
	assert.Empty(t, sender.send)
}

func TestDoubleJoinDeliversOnce(t *testing.T) {
	h := startHub(t)
	c := register(t, h)

	sendRaw(h, c, `{"type":"join","chatId":"textbooks"}`)
	sendRaw(h, c, `{"type":"join","chatId":"textbooks"}`)
	recvEnvelope(t, c) // history for first join
	recvEnvelope(t, c) // history for second join

	sendRaw(h, c, `{"type":"message","chatId":"textbooks","message":{"text":"one copy"}}`)

	env := recvEnvelope(t, c)
	assert.Equal(t, "message", env.Type)

	flush(t, h)
	assert.Empty(t, c.send, "duplicate join must not duplicate delivery")
}

func TestDisconnectedClientIsNoLongerTargeted(t *testing.T) {
	h := startHub(t)
	a := register(t, h)
	b := register(t, h)

	sendRaw(h, a, `{"type":"join","chatId":"room-rent"}`)
	sendRaw(h, b, `{"type":"join","chatId":"room-rent"}`)
	recvEnvelope(t, a)
	recvEnvelope(t, b)

	h.Unregister <- b
	// Unregister again to exercise idempotency during teardown races.
	h.Unregister <- b

	sendRaw(h, a, `{"type":"message","chatId":"room-rent","message":{"text":"still there?"}}`)

	env := recvEnvelope(t, a)
	assert.Equal(t, "message", env.Type)

	// b's channel was closed on the first unregister and received nothing.
	_, ok := <-b.send
	assert.False(t, ok)
}

func TestFramesQueuedAcrossUnregisterAreDropped(t *testing.T) {
	h := startHub(t)
	a := register(t, h)
	b := register(t, h)

	sendRaw(h, a, `{"type":"join","chatId":"late-frames"}`)
	recvEnvelope(t, a)

	// Force the ordering where b's unregister lands before frames it
	// already queued: both a join (history reply) and a message
	// (broadcast) must be dropped without touching b's closed channel.
	h.Unregister <- b
	sendRaw(h, b, `{"type":"join","chatId":"late-frames"}`)
	sendRaw(h, b, `{"type":"message","chatId":"late-frames","message":{"text":"ghost"}}`)

	// The hub must still be alive and serving other clients.
	sendRaw(h, a, `{"type":"message","chatId":"late-frames","message":{"text":"hello"}}`)
	env := recvEnvelope(t, a)
	assert.Equal(t, "message", env.Type)
	assert.JSONEq(t, `{"text":"hello"}`, string(env.Message))

	// The dropped message never reached the store either.
	joiner := register(t, h)
	sendRaw(h, joiner, `{"type":"join","chatId":"late-frames"}`)
	env = recvEnvelope(t, joiner)
	require.Len(t, env.Messages, 1)
	assert.JSONEq(t, `{"text":"hello"}`, string(env.Messages[0]))
}

func TestMalformedAndUnknownEnvelopesAreDropped(t *testing.T) {
	h := startHub(t)
	c := register(t, h)

	inputs := []string{
		`{"not":"json"`,                        // truncated
		`{"type":"bogus"}`,                     // unknown type
		`{"type":"join"}`,                      // missing chatId
		`{"type":"message","chatId":"a-chat"}`, // missing message
		`{"type":"message","message":{"text":"no chat"}}`,
	}
	for _, in := range inputs {
		sendRaw(h, c, in)
	}

	// No reply of any kind, and no store mutation.
	joiner := register(t, h)
	sendRaw(h, joiner, `{"type":"join","chatId":"a-chat"}`)
	env := recvEnvelope(t, joiner)
	assert.Empty(t, env.Messages)

	flush(t, h)
	assert.Empty(t, c.send)
}

func TestHistoryStore(t *testing.T) {
	store := NewHistory()

	assert.Nil(t, store.Recent("never-used"))

	store.Append("c1", json.RawMessage(`{"a":1}`))
	store.Append("c1", json.RawMessage(`{"b":2}`))
	store.Append("c2", json.RawMessage(`{"c":3}`))

	require.Len(t, store.Recent("c1"), 2)
	assert.JSONEq(t, `{"a":1}`, string(store.Recent("c1")[0]))
	assert.JSONEq(t, `{"b":2}`, string(store.Recent("c1")[1]))
	require.Len(t, store.Recent("c2"), 1)
}
