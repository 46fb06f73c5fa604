package fleet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics contains Prometheus metrics for a Fleet.
type metrics struct {
	agents        *prometheus.GaugeVec
	idleTimeouts  prometheus.Counter
	terminations  prometheus.Counter
	checkFailures prometheus.Counter
	tasks         *prometheus.CounterVec
	checkDuration prometheus.Histogram
}

func newMetrics(registry prometheus.Registerer) *metrics {
	factory := promauto.With(registry)
	return &metrics{
		agents: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agent_retention_agents",
				Help: "Number of registered agents by phase",
			},
			[]string{"phase"},
		),
		idleTimeouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agent_retention_idle_timeouts_total",
				Help: "Total number of agents stopped after idling out",
			},
		),
		terminations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agent_retention_terminations_total",
				Help: "Total number of agents terminated after exhausting their usage-limit",
			},
		),
		checkFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agent_retention_check_failures_total",
				Help: "Total number of agent checks that failed and will be retried",
			},
		),
		tasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_retention_tasks_total",
				Help: "Total number of task life-cycle events by event",
			},
			[]string{"event"},
		),
		checkDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agent_retention_check_all_duration_seconds",
				Help:    "Time it takes to check all agents",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// setPhases sets the agents gauge from a count per phase
func (m *metrics) setPhases(count map[Phase]int) {
	for _, p := range Phases {
		m.agents.WithLabelValues(p.String()).Set(float64(count[p]))
	}
}
