package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "parley"

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	turns        *prometheus.CounterVec
	turnErrors   prometheus.Counter
	turnDuration *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	steps        *prometheus.CounterVec
	dialogEnds   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of processed turns by routing branch.",
		}, []string{"branch"}),
		turnErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_errors_total",
			Help:      "Total number of turns aborted with an error.",
		}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Duration of a turn including state load and save.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"branch"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "turns_in_flight",
			Help:      "Number of turns currently being processed.",
		}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_steps_total",
			Help:      "Total number of sub-dialog steps entered.",
		}, []string{"dialog", "step"}),
		dialogEnds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_ends_total",
			Help:      "Total number of sub-dialogs that left the stack.",
		}, []string{"dialog", "reason"}),
	}

	for _, c := range []prometheus.Collector{m.turns, m.turnErrors, m.turnDuration, m.inFlight, m.steps, m.dialogEnds} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			m.inFlight.Inc()
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			m.inFlight.Dec()
			if e.Err != nil {
				m.turnErrors.Inc()
				return
			}
			branch := string(e.Branch)
			m.turns.WithLabelValues(branch).Inc()
			m.turnDuration.WithLabelValues(branch).Observe(e.Duration.Seconds())
		},
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			m.steps.WithLabelValues(e.DialogID, string(e.Step)).Inc()
		},
		OnDialogEnd: func(ctx context.Context, e *domain.DialogEvent) {
			m.dialogEnds.WithLabelValues(e.DialogID, string(e.Reason)).Inc()
		},
	}
}
