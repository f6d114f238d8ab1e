// Package metrics exposes prometheus collectors for the order lifecycle.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "markethub_events_published_total",
			Help: "Total domain events published, by event type",
		},
		[]string{"event_type"},
	)

	EventsConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "markethub_events_consumed_total",
			Help: "Total domain events consumed, by queue and result",
		},
		[]string{"queue", "result"},
	)

	EventsDeadLetteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "markethub_events_dead_lettered_total",
			Help: "Total domain events diverted to a dead-letter queue",
		},
		[]string{"queue"},
	)

	NotificationsDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "markethub_notifications_delivered_total",
			Help: "Total realtime notifications delivered, by event type",
		},
		[]string{"event_type"},
	)

	OrdersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "markethub_orders_created_total",
			Help: "Total orders created",
		},
	)

	OrderAmounts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "markethub_order_amounts",
			Help:    "Distribution of order totals",
			Buckets: prometheus.LinearBuckets(0, 50, 20),
		},
	)
)

// Register registers every collector on the default registry. Call once per
// process.
func Register() {
	prometheus.MustRegister(
		EventsPublishedTotal,
		EventsConsumedTotal,
		EventsDeadLetteredTotal,
		NotificationsDeliveredTotal,
		OrdersCreatedTotal,
		OrderAmounts,
	)
}
