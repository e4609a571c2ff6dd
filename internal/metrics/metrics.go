package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	evaluations    *prometheus.CounterVec
	signals        *prometheus.CounterVec
	orders         *prometheus.CounterVec
	skippedSignals *prometheus.CounterVec
	pairFailures   *prometheus.CounterVec
	batchDuration  prometheus.Histogram
	pairsProcessed prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{Registry: reg}

	r.evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradelab_evaluations_total",
			Help: "Strategy evaluations by outcome",
		},
		[]string{"strategy", "outcome"},
	)
	r.signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradelab_signals_total",
			Help: "Actionable signals generated",
		},
		[]string{"strategy", "action"},
	)
	r.orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradelab_orders_total",
			Help: "Simulated orders by exit reason",
		},
		[]string{"strategy", "exit_reason"},
	)
	r.skippedSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradelab_skipped_signals_total",
			Help: "Signals that produced no order",
		},
		[]string{"reason"},
	)
	r.pairFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradelab_pair_failures_total",
			Help: "Symbol and strategy pairs that failed",
		},
		[]string{"stage"},
	)
	r.batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tradelab_batch_duration_seconds",
			Help:    "Batch duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 900},
		},
	)
	r.pairsProcessed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradelab_pairs_processed",
			Help: "Pairs processed by the last batch",
		},
	)

	reg.MustRegister(r.evaluations)
	reg.MustRegister(r.signals)
	reg.MustRegister(r.orders)
	reg.MustRegister(r.skippedSignals)
	reg.MustRegister(r.pairFailures)
	reg.MustRegister(r.batchDuration)
	reg.MustRegister(r.pairsProcessed)

	return r
}

// Outcome labels of RecordEvaluation
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
)

// RecordEvaluation records one strategy evaluation.
func (r *Registry) RecordEvaluation(strategy, outcome string) {
	r.evaluations.WithLabelValues(strategy, outcome).Inc()
}

// RecordSignals adds n actionable signals.
func (r *Registry) RecordSignals(strategy, action string, n int) {
	if n > 0 {
		r.signals.WithLabelValues(strategy, action).Add(float64(n))
	}
}

// RecordOrder records a closed simulated order.
func (r *Registry) RecordOrder(strategy, exitReason string) {
	r.orders.WithLabelValues(strategy, exitReason).Inc()
}

// RecordSkip records a skipped signal.
func (r *Registry) RecordSkip(reason string) {
	r.skippedSignals.WithLabelValues(reason).Inc()
}

// RecordFailure records a failed pair at the given stage.
func (r *Registry) RecordFailure(stage string) {
	r.pairFailures.WithLabelValues(stage).Inc()
}

// RecordBatch records a batch completion.
func (r *Registry) RecordBatch(duration float64, pairs int) {
	r.batchDuration.Observe(duration)
	r.pairsProcessed.Set(float64(pairs))
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating textfile dir: %w", err)
	}
	return prometheus.WriteToTextfile(path, r.Registry)
}
