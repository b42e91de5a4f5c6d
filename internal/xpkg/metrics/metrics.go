package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "restaurant",
		Name:      "orders_created_total",
		Help:      "Orders created and committed.",
	})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurant",
		Name:      "order_transitions_total",
		Help:      "Committed order status transitions.",
	}, []string{"from", "to"})

	PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurant",
		Name:      "payments_recorded_total",
		Help:      "Payments recorded, by method and status.",
	}, []string{"method", "status"})

	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurant",
		Name:      "operation_rejections_total",
		Help:      "Operations rejected, by operation and error kind.",
	}, []string{"operation", "kind"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurant",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by route and status code.",
	}, []string{"route", "code"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurant",
		Name:      "notifications_total",
		Help:      "Status notifications consumed, by broker and result.",
	}, []string{"broker", "result"})
)
