package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the checkout instrumentation. A nil *Metrics is a valid
// no-op receiver so tests and tools can skip instrumentation entirely.
type Metrics struct {
	commitsTotal   *prometheus.CounterVec
	commitDuration prometheus.Histogram
	cartLinesTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "checkout",
			Name:      "commits_total",
			Help:      "Checkout commit attempts by outcome.",
		}, []string{"status"}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pos",
			Subsystem: "checkout",
			Name:      "commit_duration_seconds",
			Help:      "Wall time of the checkout commit transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
		cartLinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "cart",
			Name:      "lines_total",
			Help:      "Cart line additions by validation result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.commitsTotal, m.commitDuration, m.cartLinesTotal)
	return m
}

func (m *Metrics) ObserveCommit(status string, seconds float64) {
	if m == nil {
		return
	}
	m.commitsTotal.WithLabelValues(status).Inc()
	m.commitDuration.Observe(seconds)
}

func (m *Metrics) AddCartLine(result string) {
	if m == nil {
		return
	}
	m.cartLinesTotal.WithLabelValues(result).Inc()
}
