// ABOUTME: Prometheus collectors for task lifecycle counters and agent gauges
// ABOUTME: Scraped by the external dashboards; incremented at each transition

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the gateway exports. The names mirror
// what the dashboards already scrape.
type Metrics struct {
	registry *prometheus.Registry

	TasksCreated     prometheus.Counter
	TasksCompleted   prometheus.Counter
	TasksFailed      prometheus.Counter
	TasksRetried     prometheus.Counter
	TasksDeadLetter  prometheus.Counter
	TasksTimedOut    prometheus.Counter
	TaskDuration     prometheus.Histogram
	ActiveAgents     prometheus.Gauge
}

// New creates a registry with all gateway collectors plus the standard Go
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		TasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swarm_task_created_total",
			Help: "Total number of tasks created",
		}),
		TasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swarm_task_completed_total",
			Help: "Total number of tasks completed successfully",
		}),
		TasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swarm_task_failed_total",
			Help: "Total number of task failures reported, including retried ones",
		}),
		TasksRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swarm_task_retried_total",
			Help: "Total number of tasks re-queued for retry",
		}),
		TasksDeadLetter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swarm_task_dead_lettered_total",
			Help: "Total number of tasks moved to the dead-letter queue",
		}),
		TasksTimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swarm_task_timeout_total",
			Help: "Total number of tasks forced to failure by the timeout monitor",
		}),
		TaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "swarm_task_duration_seconds",
			Help:    "Duration of task execution in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		ActiveAgents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swarm_active_agents",
			Help: "Number of registered agents that are not offline",
		}),
	}

	reg.MustRegister(
		m.TasksCreated,
		m.TasksCompleted,
		m.TasksFailed,
		m.TasksRetried,
		m.TasksDeadLetter,
		m.TasksTimedOut,
		m.TaskDuration,
		m.ActiveAgents,
	)
	return m
}

// Handler returns the scrape endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
