package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStorefrontMetrics(reg)

	metrics.ObserveCheckout("cod", 250*time.Millisecond)
	metrics.IncOrderCreated("cod")
	metrics.IncCheckoutFailure("empty_cart")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_created_total", "payment_method", "cod"); err != nil {
		t.Fatalf("fetch orders created: %v", err)
	} else if got != 1 {
		t.Fatalf("expected orders_created=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "checkout_failures_total", "reason", "empty_cart"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "checkout_duration_seconds", "payment_method", "cod"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestStorefrontMetricsStatusChangeLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStorefrontMetrics(reg)

	metrics.IncStatusChange("pending", "cancelled")
	metrics.IncStatusChange("", "shipped")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "order_status_changes_total", "from", "pending"); err != nil {
		t.Fatalf("fetch transition: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transition=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "order_status_changes_total", "from", "unknown"); err != nil {
		t.Fatalf("fetch normalized transition: %v", err)
	} else if got != 1 {
		t.Fatalf("expected normalized transition=1, got %f", got)
	}
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
