package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

const DefaultSendBuffer = 32

// Subscriber is one live listener. Outbound is bounded: a subscriber that
// stops draining it loses messages rather than blocking the publish path.
// Guaranteed delivery goes through the replay endpoint, not this channel.
type Subscriber struct {
	ID       uuid.UUID
	Outbound chan string
}

// Hub is the in-process broadcast fan-out. Every published envelope goes to
// every currently registered subscriber; there is no backlog for anyone not
// connected at send time.
type Hub struct {
	mu          sync.RWMutex
	log         *logger.Logger
	subscribers map[uuid.UUID]*Subscriber
	sendBuffer  int
}

func NewHub(log *logger.Logger, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		log:         log.With("component", "Hub"),
		subscribers: make(map[uuid.UUID]*Subscriber),
		sendBuffer:  sendBuffer,
	}
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID:       uuid.New(),
		Outbound: make(chan string, h.sendBuffer),
	}
	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()
	h.log.Debug("subscriber registered", "subscriber_id", sub.ID)
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub.ID]; !ok {
		return
	}
	delete(h.subscribers, sub.ID)
	close(sub.Outbound)
	h.log.Debug("subscriber unregistered", "subscriber_id", sub.ID)
}

// Send forwards the payload to every subscriber without blocking; a full
// outbound buffer drops the message for that subscriber.
func (h *Hub) Send(payload string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		select {
		case sub.Outbound <- payload:
		default:
			h.log.Warn("dropping message; outbound buffer full", "subscriber_id", sub.ID)
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
