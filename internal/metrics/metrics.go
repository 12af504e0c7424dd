package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "talent_screener"

	itemsTotal    = "stage_items_total"
	stageDuration = "stage_duration_seconds"
	runsTotal     = "runs_total"
	notifyTotal   = "notifications_total"
	stageLabel    = "stage"
	outcomeLabel  = "outcome"
	stateLabel    = "state"
	notifyLabel   = "status"
)

// Item outcomes recorded per stage.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeDropped  = "dropped"
)

var (
	itemsLabels    = []string{stageLabel, outcomeLabel}
	durationLabels = []string{stageLabel}
	runLabels      = []string{stateLabel}
	notifyLabels   = []string{notifyLabel}
)

// Metrics are the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	items         *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	m := &Metrics{
		gatherer: gatherer,
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      itemsTotal,
				Help:      "number of candidates processed by a stage, by outcome",
			},
			itemsLabels,
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      stageDuration,
				Help:      "time spent in a stage",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			durationLabels,
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      runsTotal,
				Help:      "number of pipeline runs, by final state",
			},
			runLabels,
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      notifyTotal,
				Help:      "number of scheduler decisions, by delivery status",
			},
			notifyLabels,
		),
	}

	for _, c := range []prometheus.Collector{m.items, m.duration, m.runs, m.notifications} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) IncItem(stage, outcome string) {
	if m == nil {
		return
	}
	m.items.With(prometheus.Labels{stageLabel: stage, outcomeLabel: outcome}).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.With(prometheus.Labels{stageLabel: stage}).Observe(d.Seconds())
}

func (m *Metrics) IncRun(state string) {
	if m == nil {
		return
	}
	m.runs.With(prometheus.Labels{stateLabel: state}).Inc()
}

// IncNotification counts scheduler outcomes: sent, skipped or failed.
func (m *Metrics) IncNotification(status string) {
	if m == nil {
		return
	}
	m.notifications.With(prometheus.Labels{notifyLabel: status}).Inc()
}

// WriteTextfile dumps the collected metrics in the node exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || m.gatherer == nil {
		return fmt.Errorf("metrics are not initialized")
	}
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
