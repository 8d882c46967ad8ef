package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector on top of Prometheus vectors.
type PrometheusCollector struct {
	attempts  *prometheus.CounterVec
	retries   prometheus.Counter
	exhausted prometheus.Counter
	latency   *prometheus.HistogramVec
}

// NewPrometheusCollector creates the collector's metrics under namespace.
// Call Register before serving them.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "balance_update_attempts_total",
				Help:      "Single balance update attempts by outcome",
			},
			[]string{"outcome"},
		),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_update_retries_total",
			Help:      "Version conflicts retried with a freshly fetched wallet",
		}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_update_conflicts_exhausted_total",
			Help:      "Balance updates abandoned after the retry bound was reached",
		}),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "balance_update_duration_seconds",
				Help:      "Latency of logical balance updates including retries",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
}

// Register registers all collectors with the given registerer.
func (pc *PrometheusCollector) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{pc.attempts, pc.retries, pc.exhausted, pc.latency} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordAttempt implements Collector.
func (pc *PrometheusCollector) RecordAttempt(outcome string) {
	pc.attempts.WithLabelValues(outcome).Inc()
}

// RecordRetry implements Collector.
func (pc *PrometheusCollector) RecordRetry() {
	pc.retries.Inc()
}

// RecordConflictExhausted implements Collector.
func (pc *PrometheusCollector) RecordConflictExhausted() {
	pc.exhausted.Inc()
}

// RecordUpdate implements Collector.
func (pc *PrometheusCollector) RecordUpdate(outcome string, duration time.Duration) {
	pc.latency.WithLabelValues(outcome).Observe(duration.Seconds())
}
