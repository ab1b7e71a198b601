// Package metrics records per-run counters with Prometheus.
//
// Each Recorder owns its registry instead of the process-wide default one.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects the counters of one summarization run.
type Recorder struct {
	reg              *prometheus.Registry
	rows             prometheus.Counter
	values           *prometheus.CounterVec
	deliveryFailures prometheus.Counter
	joinFailures     prometheus.Counter
	runDuration      prometheus.Histogram
}

// NewRecorder creates a recorder backed by a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		rows: f.NewCounter(prometheus.CounterOpts{
			Name: "sumup_rows_total",
			Help: "Rows read from the source",
		}),
		values: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sumup_values_total",
			Help: "Cell values classified, by kind",
		}, []string{"kind"}),
		deliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "sumup_delivery_failures_total",
			Help: "Values that could not be delivered to their column aggregator",
		}),
		joinFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "sumup_join_failures_total",
			Help: "Column aggregators that terminated abnormally",
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sumup_run_duration_seconds",
			Help:    "Wall time of a summarization run",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) Row() {
	if r != nil {
		r.rows.Inc()
	}
}

func (r *Recorder) Value(kind string) {
	if r != nil {
		r.values.WithLabelValues(kind).Inc()
	}
}

func (r *Recorder) DeliveryFailure() {
	if r != nil {
		r.deliveryFailures.Inc()
	}
}

func (r *Recorder) JoinFailure() {
	if r != nil {
		r.joinFailures.Inc()
	}
}

func (r *Recorder) ObserveRun(d time.Duration) {
	if r != nil {
		r.runDuration.Observe(d.Seconds())
	}
}

// WriteTextfile writes all metrics in the text exposition format, suitable for
// the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
