package server

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/erdraw/pkg/editor"
)

// subscriberBuffer is the number of undelivered events kept per subscriber.
// Events beyond it are dropped for that subscriber.
const subscriberBuffer = 16

// event is an encoded editor message ready for the event stream.
type event struct {
	Type editor.MessageType
	Data []byte
}

// Hub fans editor events out to every connected event stream. It implements
// [editor.Notifier], so a session can publish to it directly.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]chan event
	logger *log.Logger
}

// NewHub creates a hub with no subscribers.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{subs: make(map[uuid.UUID]chan event), logger: logger}
}

// Subscribe registers a listener. The returned cancel function removes it
// and closes the channel.
func (h *Hub) Subscribe() (uuid.UUID, <-chan event, func()) {
	id := uuid.New()
	ch := make(chan event, subscriberBuffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return id, ch, cancel
}

// Subscribers returns the number of connected listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Notify implements editor.Notifier. Delivery never blocks; a subscriber
// whose buffer is full misses the event.
func (h *Hub) Notify(_ context.Context, m editor.Message) error {
	data, err := editor.MarshalMessage(m)
	if err != nil {
		return err
	}
	ev := event{Type: m.Type(), Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("dropped event", "subscriber", id, "type", m.Type())
		}
	}
	return nil
}

var _ editor.Notifier = (*Hub)(nil)
