// Package hub implements the realtime push collaborator: a per-user fan-out
// of notification messages. Delivery is fire-and-forget; a user with no open
// stream simply misses the message.
package hub

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/metrics"
)

// Message is one notification pushed to a user stream.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Pusher is the push collaborator contract consumed by the notification
// service.
type Pusher interface {
	PushToUser(userID, event string, payload interface{})
}

const streamBuffer = 16

// Hub fans messages out to every open stream of a user.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[chan Message]struct{}
}

func New() *Hub {
	return &Hub{streams: map[string]map[chan Message]struct{}{}}
}

// Subscribe opens a stream for the user. The returned cancel func closes the
// stream and must be called when the client disconnects.
func (h *Hub) Subscribe(userID string) (<-chan Message, func()) {
	ch := make(chan Message, streamBuffer)

	h.mu.Lock()
	if h.streams[userID] == nil {
		h.streams[userID] = map[chan Message]struct{}{}
	}
	h.streams[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.streams[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.streams, userID)
			}
		}
		h.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

// PushToUser delivers the message to every open stream of the user without
// blocking; a full stream drops the message.
func (h *Hub) PushToUser(userID, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set, ok := h.streams[userID]
	if !ok {
		logrus.Debugf("no open stream for user %s, dropping %s", userID, event)
		return
	}

	msg := Message{Event: event, Payload: payload}
	for ch := range set {
		select {
		case ch <- msg:
			metrics.NotificationsDeliveredTotal.WithLabelValues(event).Inc()
		default:
			logrus.Warnf("stream for user %s is full, dropping %s", userID, event)
		}
	}
}
