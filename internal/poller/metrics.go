package poller

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes refresh health to Prometheus.
type Metrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	pullRequests    prometheus.Gauge
	degraded        prometheus.Gauge
	lastSuccess     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prdashboard",
			Name:      "refreshes_total",
			Help:      "Pull request refreshes by outcome.",
		}, []string{"outcome"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "prdashboard",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent listing and enriching pull requests.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		pullRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "prdashboard",
			Name:      "pull_requests",
			Help:      "Active pull requests in the latest snapshot.",
		}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "prdashboard",
			Name:      "degraded_pull_requests",
			Help:      "Pull requests in the latest snapshot with at least one failed sub-request.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "prdashboard",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.refreshes, m.refreshDuration, m.pullRequests, m.degraded, m.lastSuccess)
	}
	return m
}

func (m *Metrics) observeFailure(seconds float64) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues("failure").Inc()
	m.refreshDuration.Observe(seconds)
}

func (m *Metrics) observeSuccess(seconds float64, snap Snapshot) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues("success").Inc()
	m.refreshDuration.Observe(seconds)
	m.pullRequests.Set(float64(len(snap.PullRequests)))
	degraded := 0
	for _, pr := range snap.PullRequests {
		if pr.Degraded() {
			degraded++
		}
	}
	m.degraded.Set(float64(degraded))
	m.lastSuccess.Set(float64(snap.TakenAt.Unix()))
}
