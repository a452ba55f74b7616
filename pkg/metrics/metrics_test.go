package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestOrderMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOrderMetrics(reg)
	metrics.IncSubmission(OutcomeCreated)
	metrics.IncSubmission(OutcomeCreated)
	metrics.IncSubmission(OutcomeRejected)
	metrics.IncPayment("paypal")
	metrics.IncNotificationFailure("")
	metrics.ObserveSubmit(120 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orderforms_submissions_total", "outcome", OutcomeCreated); err != nil {
		t.Fatalf("fetch created: %v", err)
	} else if got != 2 {
		t.Fatalf("expected created=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "orderforms_submissions_total", "outcome", OutcomeRejected); err != nil {
		t.Fatalf("fetch rejected: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejected=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "orderforms_payments_total", "source", "paypal"); err != nil || got != 1 {
		t.Fatalf("expected paypal payments=1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "orderforms_notification_failures_total", "kind", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown failure=1, got %f err=%v", got, err)
	}

	mf := findMetricFamily(mfs, "orderforms_submit_duration_seconds")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("expected submit duration histogram")
	}
	if sum := mf.GetMetric()[0].GetHistogram().GetSampleSum(); sum <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", sum)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe("POST", "/api/v1/forms/{formId}/total", 200, 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "orderforms_http_requests_total", "status", "200"); err != nil || got != 1 {
		t.Fatalf("expected one 200 request, got %f err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "orderforms_http_request_duration_seconds", "route", "/api/v1/forms/{formId}/total"); err != nil || got <= 0 {
		t.Fatalf("expected latency recorded, got %f err=%v", got, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var orders *OrderMetrics
	orders.IncSubmission(OutcomeFailed)
	orders.IncPayment("admin")
	orders.IncNotificationFailure("buyer")
	orders.ObserveSubmit(time.Second)

	NewOrderMetrics(nil).IncSubmission(OutcomeCreated)

	var httpMetrics *HTTPMetrics
	httpMetrics.Observe("GET", "/", 200, time.Millisecond)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
