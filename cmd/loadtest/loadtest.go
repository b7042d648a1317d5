// Command loadtest opens many relay connections against a running
// server, joins them all to one chat, and measures fan-out delivery.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "relay websocket URL")
	conns := flag.Int("conns", 50, "number of concurrent connections")
	messages := flag.Int("messages", 10, "messages sent per connection")
	chatID := flag.String("chat", "loadtest", "chat to join")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var received atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < *conns; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			conn, _, err := websocket.Dial(ctx, *addr, nil)
			if err != nil {
				log.Printf("conn %d: dial failed: %v", id, err)
				return
			}
			defer conn.CloseNow()

			join := fmt.Sprintf(`{"type":"join","chatId":%q}`, *chatID)
			if err := conn.Write(ctx, websocket.MessageText, []byte(join)); err != nil {
				log.Printf("conn %d: join failed: %v", id, err)
				return
			}

			go func() {
				for {
					if _, _, err := conn.Read(ctx); err != nil {
						return
					}
					received.Add(1)
				}
			}()

			for n := 0; n < *messages; n++ {
				frame := fmt.Sprintf(
					`{"type":"message","chatId":%q,"message":{"text":"msg-%d-%d","senderId":"load-%d"}}`,
					*chatID, id, n, id)
				if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
					log.Printf("conn %d: write failed: %v", id, err)
					return
				}
			}

			// Give broadcasts a moment to drain before hanging up.
			time.Sleep(2 * time.Second)
		}(i)
	}

	start := time.Now()
	wg.Wait()

	sent := *conns * *messages
	// Every connection holds a subscription, so expected deliveries
	// include one history frame each plus the full fan-out.
	log.Printf("sent %d messages over %d connections in %s; received %d frames",
		sent, *conns, time.Since(start).Round(time.Millisecond), received.Load())
}
