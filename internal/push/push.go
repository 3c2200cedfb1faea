// Package push fans data-change broadcasts out to connected clients over
// WebSocket and SSE, so storefront tabs refresh without polling the API.
package push

import (
	"encoding/json"
	"sync"

	"github.com/sridharani/designhaven/internal/store"
	"github.com/sridharani/designhaven/pkg/event"
	"github.com/sridharani/designhaven/pkg/logger"
	"github.com/sridharani/designhaven/pkg/workerpool"
	"github.com/sridharani/designhaven/pkg/ws"
)

// Frame is the wire shape of one push message.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Broadcaster owns the WebSocket hub and the SSE subscriber set.
type Broadcaster struct {
	Hub  *ws.Hub
	pool *workerpool.Pool

	mu   sync.Mutex
	subs map[chan Frame]struct{}
}

// NewBroadcaster starts the hub loop and the fan-out pool.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		Hub:  ws.NewHub(),
		pool: workerpool.New(4),
		subs: make(map[chan Frame]struct{}),
	}
	go b.Hub.Run()
	return b
}

// Wire subscribes the broadcaster to the store's events. Call once at
// boot, after the store is initialized.
func (b *Broadcaster) Wire(s *store.Store) {
	s.Subscribe(func(snap store.Snapshot) {
		b.publish(Frame{Event: store.EventDataChanged, Data: snap})
	})
	event.Listen(store.EventStorageChanged, func(payload interface{}) {
		b.publish(Frame{Event: store.EventStorageChanged, Data: payload})
	})
	event.Listen(store.EventQuotaExceeded, func(payload interface{}) {
		b.publish(Frame{Event: store.EventQuotaExceeded, Data: payload})
	})
}

// Subscribe returns a channel of frames plus a cancel func. Slow readers
// lose frames rather than block the publisher.
func (b *Broadcaster) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 8)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Broadcaster) publish(f Frame) {
	err := b.pool.Submit(func() {
		raw, err := json.Marshal(f)
		if err != nil {
			logger.Error("push: encode frame", "error", err)
			return
		}
		select {
		case b.Hub.Broadcast <- raw:
		default:
		}

		b.mu.Lock()
		for ch := range b.subs {
			select {
			case ch <- f:
			default:
			}
		}
		b.mu.Unlock()
	})
	if err != nil {
		logger.Warn("push: fan-out pool rejected frame", "error", err)
	}
}

// Shutdown drains the fan-out pool.
func (b *Broadcaster) Shutdown() {
	b.pool.Shutdown()
}
