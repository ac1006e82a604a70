// Package metrics exposes the process-level Prometheus counters and histograms
// that sit alongside the audit log: call counts and latencies per
// component, not a tracing system. A nil *Collector is a valid, safe no-op
// so callers never need to check whether metrics are enabled.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns one Prometheus registry and every counter/histogram the
// runtime reports against it.
type Collector struct {
	registry *prometheus.Registry

	toolExecutions  *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	completions     *prometheus.CounterVec
	completionTier  *prometheus.CounterVec
	budgetDowngrade prometheus.Counter
	jobsFired       *prometheus.CounterVec
	jobDuration     prometheus.Histogram
}

// New builds a Collector registered against its own private registry, so
// multiple Runtimes in the same process (tests, multi-tenant hosting)
// never collide on metric registration.
func New() *Collector {
	reg := prometheus.NewRegistry()
	return &Collector{
		registry: reg,
		toolExecutions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "tools",
			Name:      "executions_total",
			Help:      "Tool executions by name and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentcore",
			Subsystem: "tools",
			Name:      "execution_duration_seconds",
			Help:      "Tool execution wall-clock duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		completions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "router",
			Name:      "completions_total",
			Help:      "Model completions by finish reason.",
		}, []string{"finish_reason"}),
		completionTier: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "router",
			Name:      "completions_by_tier_total",
			Help:      "Model completions by serving tier.",
		}, []string{"tier"}),
		budgetDowngrade: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "router",
			Name:      "budget_downgrades_total",
			Help:      "Times a cloud-tier request was downgraded to local by the budget gate.",
		}),
		jobsFired: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "scheduler",
			Name:      "jobs_fired_total",
			Help:      "Scheduler job firings by outcome.",
		}, []string{"outcome"}),
		jobDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "agentcore",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduler job firing wall-clock duration.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler exposes the collector's registry in the Prometheus text exposition
// format, for mounting at /metrics.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveToolExecution records one completed tool call.
func (c *Collector) ObserveToolExecution(tool string, success bool, durationSeconds float64) {
	if c == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	c.toolExecutions.WithLabelValues(tool, outcome).Inc()
	c.toolDuration.WithLabelValues(tool).Observe(durationSeconds)
}

// ObserveCompletion records one router-dispatched model completion.
func (c *Collector) ObserveCompletion(tier, finishReason string) {
	if c == nil {
		return
	}
	c.completions.WithLabelValues(finishReason).Inc()
	c.completionTier.WithLabelValues(tier).Inc()
}

// ObserveBudgetDowngrade records a cloud->local budget-gate downgrade.
func (c *Collector) ObserveBudgetDowngrade() {
	if c == nil {
		return
	}
	c.budgetDowngrade.Inc()
}

// ObserveJobFired records one scheduler job firing.
func (c *Collector) ObserveJobFired(success bool, durationSeconds float64) {
	if c == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	c.jobsFired.WithLabelValues(outcome).Inc()
	c.jobDuration.Observe(durationSeconds)
}
