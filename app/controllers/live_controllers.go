package controllers

import (
	"github.com/sridharani/designhaven/internal/push"
	"github.com/sridharani/designhaven/pkg/ctx"
	"github.com/sridharani/designhaven/pkg/sse"
	"github.com/sridharani/designhaven/pkg/ws"
)

// LiveController serves the realtime update feeds.
type LiveController struct {
	broadcaster *push.Broadcaster
}

func NewLiveController(b *push.Broadcaster) *LiveController {
	return &LiveController{broadcaster: b}
}

// Events is the SSE feed. The connection stays open until the client goes
// away, emitting one event per store broadcast.
func (lc *LiveController) Events(c *ctx.Context) {
	stream := sse.New(c.W, c.R)
	if stream == nil {
		return
	}
	frames, cancel := lc.broadcaster.Subscribe()
	defer cancel()

	stream.Comment("connected")
	for {
		select {
		case <-c.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := stream.Send(frame.Event, frame.Data); err != nil {
				return
			}
			if stream.IsClosed() {
				return
			}
		}
	}
}

// Socket upgrades to a WebSocket on the shared hub.
func (lc *LiveController) Socket(c *ctx.Context) {
	ws.Upgrade(c.W, c.R, lc.broadcaster.Hub)
}
