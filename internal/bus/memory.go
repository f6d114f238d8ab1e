package bus

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/events"
)

// MemoryBus is an in-process Bus used by tests and local single-binary runs.
// It implements the same publish/subscribe contract as the production
// transports: delivery is per-subscription, a failing handler is retried up
// to MaxAttempts and then dead-lettered.
//
// Delivery is synchronous inside Publish, which makes choreography tests
// deterministic without sleeps or polling.
type MemoryBus struct {
	mu          sync.Mutex
	subs        map[string][]Subscription
	published   []events.Envelope
	deadLetters map[string][]events.Envelope
	maxAttempts int
	started     bool
}

// NewMemoryBus creates an in-memory bus. Handlers get maxAttempts tries
// before a message is dead-lettered; zero means a single attempt.
func NewMemoryBus(maxAttempts int) *MemoryBus {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &MemoryBus{
		subs:        make(map[string][]Subscription),
		deadLetters: make(map[string][]events.Envelope),
		maxAttempts: maxAttempts,
	}
}

func (b *MemoryBus) Subscribe(sub Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub.EventType] = append(b.subs[sub.EventType], sub)
	return nil
}

func (b *MemoryBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = true
	return nil
}

func (b *MemoryBus) Close() error { return nil }

func (b *MemoryBus) Publish(ctx context.Context, eventType string, payload interface{}, correlationID string) error {
	event, err := events.New(eventType, payload, correlationID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.published = append(b.published, event)
	subs := append([]Subscription(nil), b.subs[eventType]...)
	b.mu.Unlock()

	for _, sub := range subs {
		b.deliver(ctx, sub, event)
	}
	return nil
}

func (b *MemoryBus) deliver(ctx context.Context, sub Subscription, event events.Envelope) {
	var err error
	for attempt := 0; attempt < b.maxAttempts; attempt++ {
		if err = sub.Handler(ctx, event); err == nil {
			return
		}
	}

	logrus.Errorf("memory bus: handler for %s failed after %d attempts, dead-lettering: %v",
		sub.Queue(), b.maxAttempts, err)

	b.mu.Lock()
	b.deadLetters[sub.DeadLetterQueue()] = append(b.deadLetters[sub.DeadLetterQueue()], event)
	b.mu.Unlock()
}

// Published returns every envelope published so far, in order.
func (b *MemoryBus) Published() []events.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Envelope(nil), b.published...)
}

// PublishedOf returns published envelopes of one event type, in order.
func (b *MemoryBus) PublishedOf(eventType string) []events.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Envelope
	for _, e := range b.published {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// DeadLetters returns the envelopes dead-lettered for the given queue.
func (b *MemoryBus) DeadLetters(queue string) []events.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Envelope(nil), b.deadLetters[queue]...)
}
