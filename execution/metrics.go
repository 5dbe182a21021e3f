package execution

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "execution"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Time spent in ExecuteBlock.
	BlockExecutionTime metrics.Histogram
	// Outcomes of ExecuteBlock, labelled by outcome.
	Outcomes metrics.Counter
	// Transactions persisted as mined.
	MinedTxs metrics.Counter
	// Transactions persisted as failed.
	FailedTxs metrics.Counter
	// Rollbacks of rejected blocks.
	Rollbacks metrics.Counter
	// Height of the chain.
	Height metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		BlockExecutionTime: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "block_execution_time_seconds",
			Help:      "Time spent executing a block.",
			Buckets:   stdprometheus.ExponentialBuckets(0.001, 2, 14),
		}, labels).With(labelsAndValues...),
		Outcomes: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "outcomes_total",
			Help:      "Block execution outcomes.",
		}, append(labels, "outcome")).With(labelsAndValues...),
		MinedTxs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "mined_txs_total",
			Help:      "Transactions persisted as mined.",
		}, labels).With(labelsAndValues...),
		FailedTxs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "failed_txs_total",
			Help:      "Transactions persisted as failed.",
		}, labels).With(labelsAndValues...),
		Rollbacks: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rollbacks_total",
			Help:      "Rollbacks of rejected blocks.",
		}, labels).With(labelsAndValues...),
		Height: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "height",
			Help:      "Height of the chain.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		BlockExecutionTime: discard.NewHistogram(),
		Outcomes:           discard.NewCounter(),
		MinedTxs:           discard.NewCounter(),
		FailedTxs:          discard.NewCounter(),
		Rollbacks:          discard.NewCounter(),
		Height:             discard.NewGauge(),
	}
}
