package handlers

import (
	"log"
	"time"

	"firdesk/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const (
	feedBufferSize   = 32
	feedPingInterval = 30 * time.Second
	feedWriteTimeout = 10 * time.Second
)

// FeedHandler streams collection change events over WebSocket
type FeedHandler struct {
	feed *services.ChangeFeed
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feed *services.ChangeFeed) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RequireUpgrade rejects plain HTTP requests on WebSocket routes
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handle forwards every change event to the client until it disconnects.
// All writes happen on this goroutine.
func (h *FeedHandler) Handle(c *websocket.Conn) {
	subID, events := h.feed.Subscribe(feedBufferSize)
	defer h.feed.Unsubscribe(subID)

	// The client never sends anything we act on; reading only detects close
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case event := <-events:
			c.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := c.WriteJSON(event); err != nil {
				log.Printf("⚠️  [FEED] Write failed for %s: %v", subID, err)
				return
			}

		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(feedWriteTimeout)); err != nil {
				log.Printf("⚠️  [FEED] Ping failed for %s: %v", subID, err)
				return
			}
		}
	}
}
