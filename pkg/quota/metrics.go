package quota

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision labels used by Metrics.
const (
	decisionAllowed  = "allowed"
	decisionExceeded = "exceeded"
	decisionUnknown  = "unknown_key"
	decisionInactive = "inactive"
	decisionError    = "error"
)

// Metrics holds Prometheus collectors for quota decisions.
type Metrics struct {
	decisions *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics registers quota collectors on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keymeter_quota_decisions_total",
				Help: "Quota decisions by plan and outcome",
			},
			[]string{"plan", "decision"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "keymeter_quota_check_duration_seconds",
				Help:    "Time spent in CheckAndCount including storage round trips",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
		),
	}
}

func (m *Metrics) observe(plan, decision string, seconds float64) {
	if m == nil {
		return
	}
	if plan == "" {
		plan = "none"
	}
	m.decisions.WithLabelValues(plan, decision).Inc()
	m.duration.Observe(seconds)
}
