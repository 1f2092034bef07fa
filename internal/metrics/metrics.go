package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PushDeliveries counts delivery attempts by transport and outcome
	// (sent, failed, gone).
	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_push_deliveries_total",
			Help: "Push delivery attempts by transport and result",
		},
		[]string{"transport", "result"},
	)

	PushSubscriptionsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lostfound_push_subscriptions_pruned_total",
			Help: "Subscriptions deleted after the push service reported them gone",
		},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_notifications_created_total",
			Help: "Notifications written, by type",
		},
		[]string{"type"},
	)

	ProximityMatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lostfound_proximity_matches",
			Help:    "Number of items returned per proximity search",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)
)

// RecordPushDelivery increments the delivery counter for one attempt
func RecordPushDelivery(transport, result string) {
	PushDeliveries.WithLabelValues(transport, result).Inc()
}

// RecordNotification increments the created counter for a notification type
func RecordNotification(notificationType string) {
	NotificationsCreated.WithLabelValues(notificationType).Inc()
}
