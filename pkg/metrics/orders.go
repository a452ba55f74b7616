package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes recorded by OrderMetrics.
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// OrderMetrics records order form activity.
type OrderMetrics struct {
	submissions   *prometheus.CounterVec
	payments      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderforms_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderforms_payments_total",
		Help: "Submissions marked paid by source.",
	}, []string{"source"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderforms_notification_failures_total",
		Help: "Order emails that could not be sent.",
	}, []string{"kind"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orderforms_submit_duration_seconds",
		Help:    "Duration of order submission handling in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(submissions, payments, notifications, duration)
	return &OrderMetrics{
		submissions:   submissions,
		payments:      payments,
		notifications: notifications,
		duration:      duration,
	}
}

// IncSubmission counts a submission attempt with the given outcome.
func (m *OrderMetrics) IncSubmission(outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncPayment counts a submission transitioning to paid.
func (m *OrderMetrics) IncPayment(source string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncNotificationFailure counts a failed email send.
func (m *OrderMetrics) IncNotificationFailure(kind string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(kind)).Inc()
}

// ObserveSubmit records how long a submission took.
func (m *OrderMetrics) ObserveSubmit(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
