// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttendanceTransitions counts check-in/check-out attempts by outcome.
	AttendanceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "attendance_transitions_total",
		Help:      "Attendance check-in and check-out attempts by operation and result.",
	}, []string{"op", "result"})

	// ApprovalActions counts user workflow actions by outcome.
	ApprovalActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "approval_actions_total",
		Help:      "Approve, archive and delete actions by result.",
	}, []string{"action", "result"})

	// NotificationsPublished counts notifications handed to the queue.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "notifications_published_total",
		Help:      "Notifications enqueued by kind and result.",
	}, []string{"kind", "result"})

	// EmailsDelivered counts emails the worker attempted to send.
	EmailsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "emails_delivered_total",
		Help:      "Emails sent by the notification worker by kind and result.",
	}, []string{"kind", "result"})
)

// Result maps an error to a low-cardinality label value.
func Result(err error, classify func(error) string) string {
	if err == nil {
		return "ok"
	}
	if classify != nil {
		if label := classify(err); label != "" {
			return label
		}
	}
	return "error"
}
