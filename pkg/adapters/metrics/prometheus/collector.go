package prometheus

import (
	"strconv"
	"time"

	"github.com/aescanero/dropship/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// runnerStates are reset on every health check so states no runner is in
// drop back to zero
var runnerStates = []string{"idle", "sleeping", "gating", "fetching", "acting", "backoff", "cancelled"}

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	ticks          *prometheus.CounterVec
	items          *prometheus.CounterVec
	tickDuration   *prometheus.HistogramVec
	runnerState    *prometheus.GaugeVec
	runnersActive  prometheus.Gauge
	policyReloads  *prometheus.CounterVec
	externalCalls  *prometheus.CounterVec
	externalLatency *prometheus.HistogramVec
}

// NewCollector creates a new Prometheus metrics collector registered on
// reg. Pass prometheus.DefaultRegisterer to expose the metrics on the
// default /metrics handler.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ticks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropship_workflow_ticks_total",
				Help: "Total number of workflow ticks by outcome",
			},
			[]string{"workflow", "outcome"},
		),
		items: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropship_workflow_items_total",
				Help: "Total number of items processed by outcome",
			},
			[]string{"workflow", "outcome"},
		),
		tickDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dropship_workflow_tick_duration_seconds",
				Help:    "Workflow tick duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"workflow"},
		),
		runnerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dropship_runners",
				Help: "Current number of workflow runners by state",
			},
			[]string{"state"},
		),
		runnersActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dropship_runners_active",
				Help: "Number of runners launched by the orchestrator",
			},
		),
		policyReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropship_policy_reloads_total",
				Help: "Total number of policy reloads",
			},
			[]string{"success"},
		),
		externalCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropship_external_calls_total",
				Help: "Total number of calls to external services",
			},
			[]string{"service", "operation", "success"},
		),
		externalLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dropship_external_call_duration_seconds",
				Help:    "External service call latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"service", "operation"},
		),
	}
}

// RecordTick records a finished, failed or skipped tick
func (c *Collector) RecordTick(workflow string, outcome domain.Outcome, duration time.Duration) {
	c.ticks.WithLabelValues(workflow, string(outcome)).Inc()
	if outcome != domain.OutcomeDisabled {
		c.tickDuration.WithLabelValues(workflow).Observe(duration.Seconds())
	}
}

// RecordItem records the outcome of one item
func (c *Collector) RecordItem(workflow string, outcome domain.Outcome) {
	c.items.WithLabelValues(workflow, string(outcome)).Inc()
}

// RecordRunnerStates sets the runner gauge for every known state
func (c *Collector) RecordRunnerStates(counts map[string]int) {
	for _, state := range runnerStates {
		c.runnerState.WithLabelValues(state).Set(float64(counts[state]))
	}
}

// SetRunnersActive sets the number of launched runners
func (c *Collector) SetRunnersActive(count int) {
	c.runnersActive.Set(float64(count))
}

// RecordPolicyReload records a policy reload attempt
func (c *Collector) RecordPolicyReload(success bool) {
	c.policyReloads.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// RecordExternalCall records a call to a commerce backend or LLM provider
func (c *Collector) RecordExternalCall(service, operation string, success bool, duration time.Duration) {
	c.externalCalls.WithLabelValues(service, operation, strconv.FormatBool(success)).Inc()
	c.externalLatency.WithLabelValues(service, operation).Observe(duration.Seconds())
}
