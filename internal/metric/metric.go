package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OpAddItem        = "add_item"
	OpUpdateQuantity = "update_quantity"
	OpRemoveItem     = "remove_item"
	OpClearCart      = "clear_cart"
)

var (
	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodorder",
			Name:      "cart_mutations_total",
			Help:      "Number of cart mutations by operation.",
		},
		[]string{"op"},
	)

	CartPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodorder",
		Name:      "cart_persist_failures_total",
		Help:      "Number of cart snapshot writes that failed and were skipped.",
	})

	OrdersSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodorder",
		Name:      "orders_submitted_total",
		Help:      "Number of orders accepted at checkout.",
	})

	OrderStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodorder",
			Name:      "order_status_changes_total",
			Help:      "Number of order status changes by target status.",
		},
		[]string{"status"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodorder",
			Name:      "notifications_sent_total",
			Help:      "Number of order notifications emitted by topic.",
		},
		[]string{"topic"},
	)
)
