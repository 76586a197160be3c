package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Settlement tracks payment settlement activity. All record methods are
// safe on a nil receiver so callers never have to branch on optional
// metrics.
type Settlement struct {
	registry *prometheus.Registry

	ordersCreatedTotal   *prometheus.CounterVec
	ordersCompletedTotal *prometheus.CounterVec
	ordersFailedTotal    *prometheus.CounterVec
	ordersExpiredTotal   prometheus.Counter
	ordersRefundedTotal  prometheus.Counter

	completedAmountTotal *prometheus.CounterVec
	platformFeeTotal     *prometheus.CounterVec

	webhooksTotal        *prometheus.CounterVec
	webhookRejectedTotal *prometheus.CounterVec

	enrollmentsTotal        prometheus.Counter
	enrollmentDeferredTotal prometheus.Counter

	casConflictsTotal prometheus.Counter

	settleDuration *prometheus.HistogramVec
}

// NewSettlement builds the metric set on its own registry.
func NewSettlement() *Settlement {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Settlement{
		registry: registry,

		ordersCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursepay_orders_created_total",
				Help: "Payment orders created, by method and currency.",
			},
			[]string{"method", "currency"},
		),
		ordersCompletedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursepay_orders_completed_total",
				Help: "Payment orders settled as COMPLETED, by method.",
			},
			[]string{"method"},
		),
		ordersFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursepay_orders_failed_total",
				Help: "Payment orders settled as FAILED, by method.",
			},
			[]string{"method"},
		),
		ordersExpiredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "coursepay_orders_expired_total",
				Help: "Pending orders expired by the sweep.",
			},
		),
		ordersRefundedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "coursepay_orders_refunded_total",
				Help: "Completed orders refunded by an administrator.",
			},
		),

		completedAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursepay_completed_amount_total",
				Help: "Settled gross amount, by currency.",
			},
			[]string{"currency"},
		),
		platformFeeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursepay_platform_fee_total",
				Help: "Platform fee collected on settled orders, by currency.",
			},
			[]string{"currency"},
		),

		webhooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursepay_webhooks_total",
				Help: "Webhook deliveries accepted for processing, by provider.",
			},
			[]string{"provider"},
		),
		webhookRejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursepay_webhooks_rejected_total",
				Help: "Webhook deliveries rejected, by provider and reason.",
			},
			[]string{"provider", "reason"},
		),

		enrollmentsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "coursepay_enrollments_total",
				Help: "Enrollments granted after settlement.",
			},
		),
		enrollmentDeferredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "coursepay_enrollments_deferred_total",
				Help: "Enrollments deferred to the retry worker.",
			},
		),

		casConflictsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "coursepay_cas_conflicts_total",
				Help: "Optimistic concurrency conflicts on order updates.",
			},
		),

		settleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coursepay_settle_duration_seconds",
				Help:    "Time from order creation to terminal status.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"status"},
		),
	}
}

// Handler exposes the registry for the /metrics route.
func (m *Settlement) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Settlement) OrderCreated(method, currency string) {
	if m == nil {
		return
	}
	m.ordersCreatedTotal.WithLabelValues(method, currency).Inc()
}

func (m *Settlement) OrderCompleted(method, currency string, amount, platformFee, settleSeconds float64) {
	if m == nil {
		return
	}
	m.ordersCompletedTotal.WithLabelValues(method).Inc()
	m.completedAmountTotal.WithLabelValues(currency).Add(amount)
	m.platformFeeTotal.WithLabelValues(currency).Add(platformFee)
	m.settleDuration.WithLabelValues("COMPLETED").Observe(settleSeconds)
}

func (m *Settlement) OrderFailed(method string, settleSeconds float64) {
	if m == nil {
		return
	}
	m.ordersFailedTotal.WithLabelValues(method).Inc()
	m.settleDuration.WithLabelValues("FAILED").Observe(settleSeconds)
}

func (m *Settlement) OrderExpired() {
	if m == nil {
		return
	}
	m.ordersExpiredTotal.Inc()
}

func (m *Settlement) OrderRefunded() {
	if m == nil {
		return
	}
	m.ordersRefundedTotal.Inc()
}

func (m *Settlement) WebhookAccepted(provider string) {
	if m == nil {
		return
	}
	m.webhooksTotal.WithLabelValues(provider).Inc()
}

func (m *Settlement) WebhookRejected(provider, reason string) {
	if m == nil {
		return
	}
	m.webhookRejectedTotal.WithLabelValues(provider, reason).Inc()
}

func (m *Settlement) EnrollmentGranted() {
	if m == nil {
		return
	}
	m.enrollmentsTotal.Inc()
}

func (m *Settlement) EnrollmentDeferred() {
	if m == nil {
		return
	}
	m.enrollmentDeferredTotal.Inc()
}

func (m *Settlement) CASConflict() {
	if m == nil {
		return
	}
	m.casConflictsTotal.Inc()
}
