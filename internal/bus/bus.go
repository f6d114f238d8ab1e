// Package bus defines the publish/subscribe contract every service uses to
// exchange domain events, plus the explicit subscription registry that makes
// each service's consumption graph visible without a running broker.
//
// Delivery is at-least-once on every transport: handlers must be idempotent.
// A handler error is retried by the transport and eventually diverted to the
// subscription's dead-letter queue.
package bus

import (
	"context"
	"strings"

	"github.com/marcosvcorsi/markethub/internal/events"
)

// Handler processes one delivered envelope. Returning an error requests
// redelivery; returning nil acknowledges the message.
type Handler func(ctx context.Context, event events.Envelope) error

// Publisher publishes domain events. The envelope (event id, timestamp,
// correlation id when absent) is generated at publish time.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}, correlationID string) error
}

// Bus is a transport carrying domain events between services.
type Bus interface {
	Publisher

	// Subscribe registers a durable consumer for the subscription's event
	// type. Must be called before Start.
	Subscribe(sub Subscription) error

	// Start begins consuming. It does not block; consumption stops when ctx
	// is cancelled or Close is called.
	Start(ctx context.Context) error

	Close() error
}

// Subscription binds one service's handler to one event type.
type Subscription struct {
	Service   string
	EventType string
	Handler   Handler
}

// Queue is the durable consumer queue name, `{service}.{event-name}`.
func (s Subscription) Queue() string {
	return s.Service + "." + strings.ReplaceAll(s.EventType, ".", "-")
}

// DeadLetterQueue is the per-queue dead-letter destination.
func (s Subscription) DeadLetterQueue() string {
	return s.Queue() + ".dlq"
}

// Registry is a service's declared subscription table: event type to handler,
// constructed at startup so the full consumption graph is statically visible
// and testable against any Bus implementation.
type Registry struct {
	service string
	subs    []Subscription
}

// NewRegistry creates a registry for the named service.
func NewRegistry(service string) *Registry {
	return &Registry{service: service}
}

// On declares that the service consumes eventType with handler.
func (r *Registry) On(eventType string, handler Handler) *Registry {
	r.subs = append(r.subs, Subscription{
		Service:   r.service,
		EventType: eventType,
		Handler:   handler,
	})
	return r
}

// Subscriptions returns the declared subscription table.
func (r *Registry) Subscriptions() []Subscription {
	return r.subs
}

// Attach registers every declared subscription on b.
func (r *Registry) Attach(b Bus) error {
	for _, sub := range r.subs {
		if err := b.Subscribe(sub); err != nil {
			return err
		}
	}
	return nil
}
