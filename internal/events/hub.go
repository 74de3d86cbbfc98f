package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TypeUserStarted         = "user_started"
	TypeReferralApplied     = "referral_applied"
	TypeSubscriptionChecked = "subscription_checked"
	TypeReferralConfirmed   = "referral_confirmed"
	TypeParticipantAdded    = "participant_added"
	TypeContactSaved        = "contact_saved"
	TypeBroadcastFinished   = "broadcast_finished"
)

type Message struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

func NewMessage(eventType string, payload map[string]any) Message {
	return Message{
		ID:      uuid.NewString(),
		Type:    eventType,
		At:      time.Now().UTC(),
		Payload: payload,
	}
}

// Hub fans messages out to subscribers. A subscriber that cannot keep up
// loses messages instead of blocking the publisher.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Message
	buffer      int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subscribers: make(map[string]chan Message),
		buffer:      buffer,
	}
}

// Subscribe registers a listener. The returned cancel func closes the channel.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	id := uuid.NewString()
	ch := make(chan Message, h.buffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

func (h *Hub) Publish(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
