package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	stepRuns       *prometheus.CounterVec
	stepDuration   *prometheus.HistogramVec
	oracleCalls    *prometheus.CounterVec
	oracleTokens   *prometheus.CounterVec
	loopIterations *prometheus.HistogramVec
	turns          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_step_runs_total",
				Help: "Total number of step runs",
			},
			[]string{"step"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scout_step_duration_seconds",
				Help:    "Duration of step runs",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"step"},
		),
		oracleCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_oracle_calls_total",
				Help: "Total number of oracle calls by outcome",
			},
			[]string{"step", "outcome"},
		),
		oracleTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_oracle_tokens_total",
				Help: "Tokens consumed by oracle calls",
			},
			[]string{"step", "direction"},
		),
		loopIterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scout_loop_iterations",
				Help:    "Rounds executed by bounded loops",
				Buckets: prometheus.LinearBuckets(1, 1, 5),
			},
			[]string{"loop"},
		),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_turns_total",
				Help: "Total number of user turns by intent",
			},
			[]string{"intent"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.stepRuns, m.stepDuration, m.oracleCalls, m.oracleTokens, m.loopIterations, m.turns)
	}
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnd: func(ctx context.Context, e *domain.StepEvent) {
			m.stepRuns.WithLabelValues(e.Step).Inc()
			m.stepDuration.WithLabelValues(e.Step).Observe(e.Duration.Seconds())
		},
		OnOracleReturn: func(ctx context.Context, e *domain.OracleEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.oracleCalls.WithLabelValues(e.Step, outcome).Inc()
			m.oracleTokens.WithLabelValues(e.Step, "input").Add(float64(e.Usage.InputTokens))
			m.oracleTokens.WithLabelValues(e.Step, "output").Add(float64(e.Usage.OutputTokens))
		},
		OnLoopIteration: func(ctx context.Context, e *domain.LoopEvent) {
			// Only the terminal event carries the final round count.
			if e.Outcome == domain.LoopIterating {
				return
			}
			m.loopIterations.WithLabelValues(e.Loop).Observe(float64(e.Iteration))
		},
	}
}

// ObserveTurn counts a finished turn. Failed turns count under "error".
func (m *Metrics) ObserveTurn(intent string, err error) {
	switch {
	case err != nil:
		intent = "error"
	case intent == "":
		intent = "unknown"
	}
	m.turns.WithLabelValues(intent).Inc()
}

// label formats an iteration for log attributes.
func label(n int) string { return strconv.Itoa(n) }
