package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы обработки вебхука
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// PlatformMetrics метрики публикаций и платежей
type PlatformMetrics interface {
	IncPublishDenied(tier string)
	IncCheckout(tier, status string)
	IncBoostInitiated()
	IncWebhook(kind, outcome string)
	AddExpired(n int64)
	ObservePaymentAmount(amount int64, currency, kind string)
}

type platformMetrics struct {
	publishDenied  *prometheus.CounterVec
	checkouts      *prometheus.CounterVec
	boosts         prometheus.Counter
	webhooks       *prometheus.CounterVec
	expired        prometheus.Counter
	paymentsAmount *prometheus.HistogramVec
}

// NewPlatformMetrics регистрирует метрики в registry
func NewPlatformMetrics(registry prometheus.Registerer) PlatformMetrics {
	factory := promauto.With(registry)

	return &platformMetrics{
		publishDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "publishing_limit_denials_total",
				Help: "Publish attempts denied by the monthly limit",
			},
			[]string{"plan"},
		),
		checkouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscription_checkouts_total",
				Help: "Subscription checkouts by plan and resulting status",
			},
			[]string{"plan", "status"},
		),
		boosts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "boost_payments_initiated_total",
				Help: "Boost payment intents created",
			},
		),
		webhooks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_webhooks_total",
				Help: "Payment webhooks by payment type and outcome",
			},
			[]string{"type", "outcome"},
		),
		expired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "subscriptions_expired_total",
				Help: "Subscriptions marked expired by the sweep",
			},
		),
		paymentsAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payments_amount_minor_units",
				Help:    "Confirmed payment amounts in minor currency units",
				Buckets: prometheus.ExponentialBuckets(100, 10, 5),
			},
			[]string{"currency", "type"},
		),
	}
}

func (m *platformMetrics) IncPublishDenied(tier string) {
	m.publishDenied.WithLabelValues(tier).Inc()
}

func (m *platformMetrics) IncCheckout(tier, status string) {
	m.checkouts.WithLabelValues(tier, status).Inc()
}

func (m *platformMetrics) IncBoostInitiated() {
	m.boosts.Inc()
}

func (m *platformMetrics) IncWebhook(kind, outcome string) {
	m.webhooks.WithLabelValues(kind, outcome).Inc()
}

func (m *platformMetrics) AddExpired(n int64) {
	m.expired.Add(float64(n))
}

func (m *platformMetrics) ObservePaymentAmount(amount int64, currency, kind string) {
	m.paymentsAmount.WithLabelValues(currency, kind).Observe(float64(amount))
}

// Nop метрики для тестов и команд без /metrics
type Nop struct{}

func (Nop) IncPublishDenied(string)                    {}
func (Nop) IncCheckout(string, string)                 {}
func (Nop) IncBoostInitiated()                         {}
func (Nop) IncWebhook(string, string)                  {}
func (Nop) AddExpired(int64)                           {}
func (Nop) ObservePaymentAmount(int64, string, string) {}
