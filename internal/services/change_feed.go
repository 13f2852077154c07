package services

import (
	"log"
	"sync"

	"firdesk/internal/models"

	"github.com/google/uuid"
)

// ChangeFeed is an in-memory pub/sub for collection change events.
// Writers publish after a successful mutation; feed clients subscribe instead
// of polling the list endpoints.
type ChangeFeed struct {
	mu          sync.RWMutex
	subscribers map[string]chan models.ChangeEvent
}

// NewChangeFeed creates an empty feed
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{
		subscribers: make(map[string]chan models.ChangeEvent),
	}
}

// Subscribe registers a new subscriber and returns its id and receive channel
func (f *ChangeFeed) Subscribe(bufSize int) (string, <-chan models.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan models.ChangeEvent, bufSize)
	f.subscribers[id] = ch

	log.Printf("[FEED] Subscribe: sub=%s (total=%d)", id, len(f.subscribers))
	return id, ch
}

// Unsubscribe removes a subscription. The channel is not closed; the
// subscriber exits on its own done signal.
func (f *ChangeFeed) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subscribers[id]; ok {
		delete(f.subscribers, id)
		log.Printf("[FEED] Unsubscribe: sub=%s (remaining=%d)", id, len(f.subscribers))
	}
}

// Publish delivers event to every subscriber. Non-blocking: a subscriber whose
// buffer is full misses the event.
func (f *ChangeFeed) Publish(event models.ChangeEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for id, ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			log.Printf("⚠️  [FEED] Subscriber %s is full, dropping %s %s", id, event.Action, event.FIRNumber)
		}
	}
}

// Count returns the number of active subscribers
func (f *ChangeFeed) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}
