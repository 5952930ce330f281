package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records checkout and order lifecycle counters.
type StorefrontMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	ordersCreated    *prometheus.CounterVec
	checkoutFailures *prometheus.CounterVec
	statusChanges    *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created through checkout.",
	}, []string{"payment_method"})
	checkoutFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout attempts that did not produce an order.",
	}, []string{"reason"})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Order status updates, including cancellations.",
	}, []string{"from", "to"})
	reg.MustRegister(checkoutDuration, ordersCreated, checkoutFailures, statusChanges)
	return &StorefrontMetrics{
		checkoutDuration: checkoutDuration,
		ordersCreated:    ordersCreated,
		checkoutFailures: checkoutFailures,
		statusChanges:    statusChanges,
	}
}

// ObserveCheckout records the duration of a checkout attempt.
func (m *StorefrontMetrics) ObserveCheckout(paymentMethod string, duration time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.WithLabelValues(normalizeLabel(paymentMethod)).Observe(duration.Seconds())
}

// IncOrderCreated increments the created-orders counter.
func (m *StorefrontMetrics) IncOrderCreated(paymentMethod string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncCheckoutFailure increments the failure counter for the given reason.
func (m *StorefrontMetrics) IncCheckoutFailure(reason string) {
	if m == nil || m.checkoutFailures == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncStatusChange increments the status transition counter.
func (m *StorefrontMetrics) IncStatusChange(from, to string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
