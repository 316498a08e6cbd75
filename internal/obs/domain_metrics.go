package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesFinalizedTotal counts finalize attempts by outcome.
	SalesFinalizedTotal *prometheus.CounterVec
	// SaleFinalizeDuration records finalize latency in milliseconds.
	SaleFinalizeDuration prometheus.Histogram
	// CouponValidationsTotal counts coupon validations by result (valid or the failure reason).
	CouponValidationsTotal *prometheus.CounterVec
	// InventoryLowStockTotal counts items crossing into low stock.
	InventoryLowStockTotal prometheus.Counter
	ReceiptsRenderedTotal  *prometheus.CounterVec
	WebhookDeliveriesTotal *prometheus.CounterVec
	// WebhookAttemptLatency records delivery attempt latency in milliseconds.
	WebhookAttemptLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics registers the business collectors once per process.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		counterVec := func(name, help string) *prometheus.CounterVec {
			return register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace, Name: name, Help: help,
			}, []string{"result"}))
		}
		SalesFinalizedTotal = counterVec("sales_finalized_total", "Sale finalize attempts by outcome.")
		CouponValidationsTotal = counterVec("coupon_validations_total", "Coupon validations by result.")
		ReceiptsRenderedTotal = counterVec("receipts_rendered_total", "Receipt renders by outcome.")
		WebhookDeliveriesTotal = counterVec("webhook_deliveries_total", "Webhook deliveries by outcome.")

		SaleFinalizeDuration = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_finalize_duration_ms",
			Help:      "Sale finalize latency in milliseconds.",
			Buckets:   defaultLatencyBuckets,
		}))
		InventoryLowStockTotal = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_low_stock_total",
			Help:      "Inventory items that dropped into low stock.",
		}))
		WebhookAttemptLatency = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_attempt_duration_ms",
			Help:      "Webhook delivery attempt latency in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"}))
	})
}

// IncCounter increments vec for label when metrics are registered.
func IncCounter(vec *prometheus.CounterVec, label string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(label).Inc()
}
