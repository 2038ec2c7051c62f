package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PayoutMetrics records metadata for payout runs and individual transfers.
type PayoutMetrics struct {
	runDuration *prometheus.HistogramVec
	processed   *prometheus.CounterVec
	amountMinor *prometheus.CounterVec
}

// NewPayoutMetrics registers the payout metrics on the provided registerer.
func NewPayoutMetrics(reg prometheus.Registerer) *PayoutMetrics {
	if reg == nil {
		return &PayoutMetrics{}
	}
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payout_run_duration_seconds",
		Help:    "Duration of payout aggregation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payouts_processed_total",
		Help: "Payouts processed, labelled by resulting status.",
	}, []string{"status"})
	amountMinor := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_amount_minor_total",
		Help: "Total payout amount in minor currency units, by resulting status.",
	}, []string{"status"})
	reg.MustRegister(runDuration, processed, amountMinor)
	return &PayoutMetrics{
		runDuration: runDuration,
		processed:   processed,
		amountMinor: amountMinor,
	}
}

// ObserveRunDuration records how long a payout run took.
func (p *PayoutMetrics) ObserveRunDuration(trigger string, duration time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// IncProcessed counts one processed payout with its resulting status.
func (p *PayoutMetrics) IncProcessed(status string) {
	if p == nil || p.processed == nil {
		return
	}
	p.processed.WithLabelValues(normalizeLabel(status)).Inc()
}

// AddAmount accumulates the payout amount for the resulting status.
func (p *PayoutMetrics) AddAmount(status string, amountMinor int64) {
	if p == nil || p.amountMinor == nil {
		return
	}
	if amountMinor < 0 {
		return
	}
	p.amountMinor.WithLabelValues(normalizeLabel(status)).Add(float64(amountMinor))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
