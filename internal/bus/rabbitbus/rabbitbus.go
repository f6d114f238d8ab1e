// Package rabbitbus is the RabbitMQ transport for the domain event bus: one
// topic exchange routed by event type, one durable queue per subscription
// with a per-queue dead-letter route on the companion DLX.
package rabbitbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/events"
	"github.com/marcosvcorsi/markethub/internal/metrics"
)

// RabbitBus implements bus.Bus on a RabbitMQ topic exchange.
type RabbitBus struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	topology bus.Topology
	attempts int

	mu      sync.Mutex
	subs    []bus.Subscription
	started bool
}

// Dial connects to RabbitMQ and declares the exchange pair. Handlers get
// maxAttempts inline tries before a delivery is rejected to the DLX.
func Dial(url string, topology bus.Topology, maxAttempts int) (*RabbitBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(topology.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", topology.Exchange, err)
	}
	if err := channel.ExchangeDeclare(topology.DeadLetterExchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", topology.DeadLetterExchange, err)
	}

	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &RabbitBus{
		conn:     conn,
		channel:  channel,
		topology: topology,
		attempts: maxAttempts,
	}, nil
}

func (b *RabbitBus) Publish(ctx context.Context, eventType string, payload interface{}, correlationID string) error {
	event, err := events.New(eventType, payload, correlationID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	err = b.channel.PublishWithContext(ctx, b.topology.Exchange, eventType, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     event.EventID,
		CorrelationId: event.CorrelationID,
		Timestamp:     event.Timestamp,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(eventType).Inc()
	return nil
}

func (b *RabbitBus) Subscribe(sub bus.Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return fmt.Errorf("subscribe after start on queue %s", sub.Queue())
	}
	b.subs = append(b.subs, sub)
	return nil
}

// Start declares and binds every subscription queue, then consumes each in
// its own goroutine. Queues are durable and dead-letter to
// `{queue}.dlq` on the DLX after retry exhaustion.
func (b *RabbitBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}
	b.started = true

	for _, sub := range b.subs {
		if err := b.bind(sub); err != nil {
			return err
		}

		deliveries, err := b.channel.Consume(sub.Queue(), "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume %s: %w", sub.Queue(), err)
		}

		go b.consume(ctx, deliveries, sub)
	}
	return nil
}

func (b *RabbitBus) bind(sub bus.Subscription) error {
	args := amqp.Table{
		"x-dead-letter-exchange":    b.topology.DeadLetterExchange,
		"x-dead-letter-routing-key": sub.DeadLetterQueue(),
	}

	if _, err := b.channel.QueueDeclare(sub.Queue(), true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue %s: %w", sub.Queue(), err)
	}
	if err := b.channel.QueueBind(sub.Queue(), sub.EventType, b.topology.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", sub.Queue(), err)
	}

	// The DLQ itself, bound on the DLX, so rejected messages are retained.
	if _, err := b.channel.QueueDeclare(sub.DeadLetterQueue(), true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", sub.DeadLetterQueue(), err)
	}
	if err := b.channel.QueueBind(sub.DeadLetterQueue(), sub.DeadLetterQueue(), b.topology.DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", sub.DeadLetterQueue(), err)
	}
	return nil
}

func (b *RabbitBus) consume(ctx context.Context, deliveries <-chan amqp.Delivery, sub bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			b.processDelivery(ctx, d, sub)
		}
	}
}

func (b *RabbitBus) processDelivery(ctx context.Context, d amqp.Delivery, sub bus.Subscription) {
	var event events.Envelope
	if err := json.Unmarshal(d.Body, &event); err != nil {
		logrus.Errorf("rabbit: malformed envelope on %s: %v", sub.Queue(), err)
		b.reject(d, sub)
		return
	}

	var err error
	for attempt := 0; attempt < b.attempts; attempt++ {
		if err = sub.Handler(ctx, event); err == nil {
			if ackErr := d.Ack(false); ackErr != nil {
				logrus.Errorf("rabbit: ack failed on %s: %v", sub.Queue(), ackErr)
			}
			metrics.EventsConsumedTotal.WithLabelValues(sub.Queue(), "ok").Inc()
			return
		}
		logrus.Warnf("handler error on %s, attempt %d/%d: %v",
			sub.Queue(), attempt+1, b.attempts, err)
	}

	logrus.Errorf("message failed after %d attempts on %s, event=%s: %v",
		b.attempts, sub.Queue(), event.EventID, err)
	metrics.EventsConsumedTotal.WithLabelValues(sub.Queue(), "error").Inc()
	b.reject(d, sub)
}

func (b *RabbitBus) reject(d amqp.Delivery, sub bus.Subscription) {
	// Nack without requeue routes the message to the queue's dead-letter
	// destination.
	if err := d.Nack(false, false); err != nil {
		logrus.Errorf("rabbit: nack failed on %s: %v", sub.Queue(), err)
		return
	}
	metrics.EventsDeadLetteredTotal.WithLabelValues(sub.Queue()).Inc()
}

func (b *RabbitBus) Close() error {
	if err := b.channel.Close(); err != nil {
		b.conn.Close()
		return err
	}
	return b.conn.Close()
}
