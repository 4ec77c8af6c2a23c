package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/cory-johannsen/goap/internal/execution"
	"github.com/cory-johannsen/goap/internal/goap"
)

// Metrics records planner and executor activity on its own registry.
//
// Invariant: every collector is registered on registry.
type Metrics struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchNodes    *prometheus.HistogramVec
	searchPruned   *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec

	actions        *prometheus.CounterVec
	actionPolls    *prometheus.HistogramVec
	actionDuration *prometheus.HistogramVec

	plans     *prometheus.CounterVec
	planSteps prometheus.Histogram
}

var (
	_ goap.SearchRecorder = (*Metrics)(nil)
	_ execution.Recorder  = (*Metrics)(nil)
)

// NewMetrics creates and registers all collectors under namespace.
//
// Precondition: namespace must be a valid Prometheus metric name prefix.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "searches_total",
			Help:      "Searches by direction and outcome.",
		}, []string{"direction", "outcome"}),
		searchNodes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "search_nodes",
			Help:      "Search tree size per search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"direction"}),
		searchPruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "pruned_branches_total",
			Help:      "Branches discarded by cost pruning.",
		}, []string{"direction"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "search_duration_seconds",
			Help:      "Wall time per search.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"direction"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "actions_total",
			Help:      "Executed actions by final status.",
		}, []string{"action", "status"}),
		actionPolls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "action_polls",
			Help:      "Polls needed per action.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"action"}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "action_duration_seconds",
			Help:      "Wall time per action.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "plans_total",
			Help:      "Executed plans by outcome.",
		}, []string{"outcome"}),
		planSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "plan_steps",
			Help:      "Actions attempted per plan.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
	}
	m.registry.MustRegister(
		m.searches, m.searchNodes, m.searchPruned, m.searchDuration,
		m.actions, m.actionPolls, m.actionDuration,
		m.plans, m.planSteps,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveSearch implements goap.SearchRecorder.
func (m *Metrics) ObserveSearch(direction, outcome string, nodes, pruned int, elapsed time.Duration) {
	m.searches.WithLabelValues(direction, outcome).Inc()
	m.searchNodes.WithLabelValues(direction).Observe(float64(nodes))
	m.searchPruned.WithLabelValues(direction).Add(float64(pruned))
	m.searchDuration.WithLabelValues(direction).Observe(elapsed.Seconds())
}

// ObserveAction implements execution.Recorder.
func (m *Metrics) ObserveAction(action, status string, polls int, elapsed time.Duration) {
	m.actions.WithLabelValues(action, status).Inc()
	m.actionPolls.WithLabelValues(action).Observe(float64(polls))
	m.actionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// ObservePlan implements execution.Recorder.
func (m *Metrics) ObservePlan(outcome string, steps int) {
	m.plans.WithLabelValues(outcome).Inc()
	m.planSteps.Observe(float64(steps))
}

// WriteTextfile writes the current metrics to path in the text exposition
// format read by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("observability: writing metrics to %q: %w", path, err)
	}
	return nil
}

// Push sends the current metrics to a Pushgateway under job.
//
// Precondition: url and job must be non-empty.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("observability: pushing metrics to %s: %w", url, err)
	}
	return nil
}
