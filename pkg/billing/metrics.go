package billing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels used by Metrics.
const (
	resultUpgraded         = "upgraded"
	resultIgnored          = "ignored"
	resultMissingKey       = "missing_key"
	resultInvalidSignature = "invalid_signature"
	resultInvalidPayload   = "invalid_payload"
	resultUnconfigured     = "unconfigured"
	resultCreated          = "created"
	resultError            = "error"
)

// Metrics holds Prometheus collectors for billing traffic.
type Metrics struct {
	webhooks  *prometheus.CounterVec
	checkouts *prometheus.CounterVec
}

// NewMetrics registers billing collectors on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		webhooks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keymeter_billing_webhooks_total",
				Help: "Webhook deliveries by provider and result",
			},
			[]string{"provider", "result"},
		),
		checkouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keymeter_billing_checkouts_total",
				Help: "Checkout link requests by provider and result",
			},
			[]string{"provider", "result"},
		),
	}
}

func (m *Metrics) webhook(provider, result string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) checkout(provider, result string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(provider, result).Inc()
}
