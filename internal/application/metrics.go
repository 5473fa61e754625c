package application

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. A nil-safe no-op variant
// keeps tests and tooling free of registry bookkeeping.
type Metrics struct {
	followAttempts   *prometheus.CounterVec
	unfollowAttempts *prometheus.CounterVec
	followBacks      prometheus.Counter
	authFailures     prometheus.Counter
	activeCampaigns  prometheus.Gauge
	sweepRuns        prometheus.Counter
}

// NewMetrics registers the engine collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		followAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skygrow_follow_attempts_total",
			Help: "Follow attempts by result and failure reason.",
		}, []string{"result", "reason"}),
		unfollowAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skygrow_unfollow_attempts_total",
			Help: "Unfollow attempts by result and failure reason.",
		}, []string{"result", "reason"}),
		followBacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skygrow_follow_backs_detected_total",
			Help: "Reciprocated follows detected by the daily check.",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skygrow_auth_failures_total",
			Help: "Token refresh and authorization failures.",
		}),
		activeCampaigns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skygrow_active_campaigns",
			Help: "Campaigns eligible for the daily sweep.",
		}),
		sweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skygrow_sweep_runs_total",
			Help: "Completed sweeps over all active campaigns.",
		}),
	}
	reg.MustRegister(
		m.followAttempts,
		m.unfollowAttempts,
		m.followBacks,
		m.authFailures,
		m.activeCampaigns,
		m.sweepRuns,
	)
	return m
}

// NopMetrics returns unregistered collectors that still accept observations.
func NopMetrics() *Metrics {
	m := &Metrics{
		followAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skygrow_follow_attempts_total",
		}, []string{"result", "reason"}),
		unfollowAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skygrow_unfollow_attempts_total",
		}, []string{"result", "reason"}),
		followBacks:     prometheus.NewCounter(prometheus.CounterOpts{Name: "skygrow_follow_backs_detected_total"}),
		authFailures:    prometheus.NewCounter(prometheus.CounterOpts{Name: "skygrow_auth_failures_total"}),
		activeCampaigns: prometheus.NewGauge(prometheus.GaugeOpts{Name: "skygrow_active_campaigns"}),
		sweepRuns:       prometheus.NewCounter(prometheus.CounterOpts{Name: "skygrow_sweep_runs_total"}),
	}
	return m
}

func (m *Metrics) observeFollow(result, reason string) {
	m.followAttempts.WithLabelValues(result, reason).Inc()
}

func (m *Metrics) observeUnfollow(result, reason string) {
	m.unfollowAttempts.WithLabelValues(result, reason).Inc()
}
