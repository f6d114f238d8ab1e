// Package kafkabus is the Kafka transport for the domain event bus. Each
// event type maps to one topic; each subscription consumes through its own
// reader with the queue name as consumer group, and exhausted messages are
// forwarded to the subscription's dead-letter topic.
package kafkabus

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/events"
	"github.com/marcosvcorsi/markethub/internal/metrics"
)

// RetryConfig controls handler and publish retries.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 10 * time.Second
	}
	return c
}

// KafkaBus implements bus.Bus on Kafka.
type KafkaBus struct {
	brokers []string
	retry   RetryConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	subs    []bus.Subscription
	readers []*kafka.Reader
	started bool
}

// New creates a Kafka-backed bus. Writers are created lazily per topic.
func New(brokers []string, retry RetryConfig) *KafkaBus {
	return &KafkaBus{
		brokers: brokers,
		retry:   retry.withDefaults(),
		writers: make(map[string]*kafka.Writer),
	}
}

func (b *KafkaBus) writer(topic string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:     kafka.TCP(b.brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
		b.writers[topic] = w
	}
	return w
}

func (b *KafkaBus) Publish(ctx context.Context, eventType string, payload interface{}, correlationID string) error {
	event, err := events.New(eventType, payload, correlationID)
	if err != nil {
		return err
	}
	if err := b.publishEnvelope(ctx, eventType, event); err != nil {
		return err
	}
	metrics.EventsPublishedTotal.WithLabelValues(eventType).Inc()
	return nil
}

func (b *KafkaBus) publishEnvelope(ctx context.Context, topic string, event events.Envelope) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.EventID),
		Value: data,
	}

	writer := b.writer(topic)
	var lastErr error
	for attempt := 0; attempt < b.retry.MaxAttempts; attempt++ {
		if err := writer.WriteMessages(ctx, msg); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == b.retry.MaxAttempts-1 {
			break
		}

		delay := b.calculateBackoff(attempt)
		logrus.Warnf("kafka publish retry %d/%d for topic %s after %v: %v",
			attempt+1, b.retry.MaxAttempts, topic, delay, lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during publish retry: %w", ctx.Err())
		}
	}

	return fmt.Errorf("failed to publish to topic %s after %d attempts: %w",
		topic, b.retry.MaxAttempts, lastErr)
}

func (b *KafkaBus) Subscribe(sub bus.Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return fmt.Errorf("subscribe after start on queue %s", sub.Queue())
	}
	b.subs = append(b.subs, sub)
	return nil
}

// Start spawns one reader goroutine per subscription. The consumer group id
// is the subscription queue name, so every service gets its own durable
// cursor per event type.
func (b *KafkaBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}
	b.started = true

	for _, sub := range b.subs {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  b.brokers,
			GroupID:  sub.Queue(),
			Topic:    sub.EventType,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
		b.readers = append(b.readers, reader)

		go b.consume(ctx, reader, sub)
	}
	return nil
}

func (b *KafkaBus) consume(ctx context.Context, reader *kafka.Reader, sub bus.Subscription) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.Errorf("kafka read error on %s: %v", sub.Queue(), err)
			continue
		}
		b.processMessage(ctx, msg, sub)
	}
}

func (b *KafkaBus) processMessage(ctx context.Context, msg kafka.Message, sub bus.Subscription) {
	var event events.Envelope
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A malformed envelope can never succeed; dead-letter immediately.
		logrus.Errorf("kafka: malformed envelope on %s: %v", sub.Queue(), err)
		b.deadLetter(ctx, sub, msg.Value)
		return
	}

	var err error
	for attempt := 0; attempt < b.retry.MaxAttempts; attempt++ {
		if err = sub.Handler(ctx, event); err == nil {
			metrics.EventsConsumedTotal.WithLabelValues(sub.Queue(), "ok").Inc()
			return
		}

		backoff := b.calculateBackoff(attempt)
		logrus.Warnf("handler error on %s, attempt %d/%d: %v, retrying in %v",
			sub.Queue(), attempt+1, b.retry.MaxAttempts, err, backoff)
		time.Sleep(backoff)
	}

	logrus.Errorf("message failed after %d retries on %s, event=%s: %v",
		b.retry.MaxAttempts, sub.Queue(), event.EventID, err)
	metrics.EventsConsumedTotal.WithLabelValues(sub.Queue(), "error").Inc()
	b.deadLetter(ctx, sub, msg.Value)
}

func (b *KafkaBus) deadLetter(ctx context.Context, sub bus.Subscription, raw []byte) {
	msg := kafka.Message{Value: raw}
	writer := b.writer(sub.DeadLetterQueue())
	if err := writer.WriteMessages(ctx, msg); err != nil {
		logrus.Errorf("failed to dead-letter message for %s: %v", sub.Queue(), err)
		return
	}
	metrics.EventsDeadLetteredTotal.WithLabelValues(sub.Queue()).Inc()
}

func (b *KafkaBus) calculateBackoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * b.retry.BaseDelay

	if delay > b.retry.MaxDelay {
		delay = b.retry.MaxDelay
	}

	if b.retry.Jitter {
		jitter := time.Duration(rand.Float64() * float64(delay) * 0.3)
		delay = delay + jitter - time.Duration(float64(delay)*0.15)
	}

	return delay
}

func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for _, r := range b.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, w := range b.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
