package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "studiodesk"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking lifecycle actions by action and result.",
		},
		[]string{"action", "result"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications created by type.",
		},
		[]string{"type"},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_sync_tasks_total",
			Help:      "Sheets sync task outcomes by task type and result.",
		},
		[]string{"task_type", "result"},
	)

	outstandingDue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outstanding_due_amount",
			Help:      "Sum of unpaid booking balances at the last reminder run.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, transitions, notifications, syncTasks, outstandingDue)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncTransition counts a booking action; result is "ok" or "rejected" or "error".
func IncTransition(action, result string) {
	transitions.WithLabelValues(action, result).Inc()
}

// IncNotification counts a created notification.
func IncNotification(notificationType string) {
	notifications.WithLabelValues(notificationType).Inc()
}

// IncSyncTask counts a processed sheets task.
func IncSyncTask(taskType, result string) {
	syncTasks.WithLabelValues(taskType, result).Inc()
}

// SetOutstandingDue records the current outstanding balance.
func SetOutstandingDue(amount float64) {
	outstandingDue.Set(amount)
}
