package finsim

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments a Simulator. A nil *Metrics records nothing.
type Metrics struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	cacheHits prometheus.Counter
	issues    prometheus.Counter
}

// NewMetrics registers the simulator collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finsim",
			Name:      "simulations_total",
			Help:      "Number of simulations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "finsim",
			Name:      "simulation_duration_seconds",
			Help:      "Duration of simulations by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"kind"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "finsim",
			Name:      "backtest_cache_hits_total",
			Help:      "Number of backtests served from the result cache.",
		}),
		issues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "finsim",
			Name:      "data_quality_issues_total",
			Help:      "Number of market data gaps met by backtests.",
		}),
	}
	reg.MustRegister(m.runs, m.duration, m.cacheHits, m.issues)
	return m
}

func (m *Metrics) observe(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.runs.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) dataIssues(n int) {
	if m != nil {
		m.issues.Add(float64(n))
	}
}
