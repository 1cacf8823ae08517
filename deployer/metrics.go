package deployer

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the instrumentation for the deployment pipeline.
type Metrics struct {
	deployments    *prometheus.CounterVec
	deployDuration prometheus.Histogram
	initialSwaps   prometheus.Counter
	eventsDropped  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "deployer",
			Name:      "deployments_total",
			Help:      "Token deployments by outcome.",
		}, []string{"outcome"}),
		deployDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "launchpad",
			Subsystem: "deployer",
			Name:      "deploy_duration_seconds",
			Help:      "End to end duration of a deployment attempt.",
			Buckets:   prometheus.DefBuckets,
		}),
		initialSwaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "deployer",
			Name:      "initial_swaps_total",
			Help:      "Initial swaps executed after launch.",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "deployer",
			Name:      "events_dropped_total",
			Help:      "TokenCreated events dropped due to a full buffer.",
		}),
	}
	reg.MustRegister(m.deployments, m.deployDuration, m.initialSwaps, m.eventsDropped)
	return m
}
