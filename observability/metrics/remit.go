package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RemitMetrics records settlement host activity.
type RemitMetrics struct {
	invocations     *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	accumulatedFees prometheus.Gauge
	commitKeys      prometheus.Histogram
}

var (
	remitOnce     sync.Once
	remitRegistry *RemitMetrics
)

// Remit returns the lazily registered settlement metrics.
func Remit() *RemitMetrics {
	remitOnce.Do(func() {
		remitRegistry = &RemitMetrics{
			invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swiftremit",
				Name:      "invocations_total",
				Help:      "Contract invocations segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swiftremit",
				Name:      "rejections_total",
				Help:      "Rejected invocations segmented by operation and error code.",
			}, []string{"op", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "swiftremit",
				Name:      "invocation_duration_seconds",
				Help:      "Latency distribution of contract invocations including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			accumulatedFees: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "swiftremit",
				Name:      "accumulated_fees",
				Help:      "Platform fees currently held in contract custody.",
			}),
			commitKeys: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "swiftremit",
				Name:      "commit_keys",
				Help:      "Number of state keys written per committed invocation.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
			}),
		}
		prometheus.MustRegister(
			remitRegistry.invocations,
			remitRegistry.rejections,
			remitRegistry.latency,
			remitRegistry.accumulatedFees,
			remitRegistry.commitKeys,
		)
	})
	return remitRegistry
}

func normalizeOp(op string) string {
	op = strings.TrimSpace(op)
	if op == "" {
		return "unknown"
	}
	return op
}

// ObserveInvocation records the outcome and latency of one invocation.
func (m *RemitMetrics) ObserveInvocation(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	op = normalizeOp(op)
	if outcome == "" {
		outcome = "unknown"
	}
	m.invocations.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveRejection counts a classified rejection.
func (m *RemitMetrics) ObserveRejection(op, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.rejections.WithLabelValues(normalizeOp(op), code).Inc()
}

// ObserveCommit records how many keys an invocation committed.
func (m *RemitMetrics) ObserveCommit(keys int) {
	if m == nil {
		return
	}
	m.commitKeys.Observe(float64(keys))
}

// SetAccumulatedFees updates the custody gauge.
func (m *RemitMetrics) SetAccumulatedFees(amount float64) {
	if m == nil {
		return
	}
	m.accumulatedFees.Set(amount)
}

// InvocationCounter exposes the invocation counter for tests.
func (m *RemitMetrics) InvocationCounter() *prometheus.CounterVec { return m.invocations }

// RejectionCounter exposes the rejection counter for tests.
func (m *RemitMetrics) RejectionCounter() *prometheus.CounterVec { return m.rejections }

// AccumulatedFeesGauge exposes the custody gauge for tests.
func (m *RemitMetrics) AccumulatedFeesGauge() prometheus.Gauge { return m.accumulatedFees }
