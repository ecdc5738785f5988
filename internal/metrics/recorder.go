// Package metrics exports benchmark outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/arkilian/layoutbench/internal/bench"
	"github.com/arkilian/layoutbench/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes.
const (
	OutcomeInserted = "inserted"
	OutcomeFailed   = "failed"
)

// Recorder holds every layoutbench metric. It implements bench.Observer.
type Recorder struct {
	TrialDuration    *prometheus.HistogramVec
	TrialRecords     *prometheus.GaugeVec
	TrialFailures    *prometheus.CounterVec
	AnalyticsDropped prometheus.Counter
	Generated        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewRecorder creates the metrics and registers them on reg. A nil reg uses a
// fresh private registry so tests and multiple apps never collide.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Recorder{
		TrialDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "layoutbench_trial_duration_seconds",
				Help:    "Wall-clock duration of one timed trial",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
			},
			[]string{"representation"},
		),
		TrialRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "layoutbench_trial_records",
				Help: "Records returned by the most recent trial",
			},
			[]string{"representation"},
		),
		TrialFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "layoutbench_trial_failures_total",
				Help: "Total number of failed trials",
			},
			[]string{"representation"},
		),
		AnalyticsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "layoutbench_analytics_dropped_total",
				Help: "Total number of documents dropped by the analytics transform",
			},
		),
		Generated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "layoutbench_generated_records_total",
				Help: "Total number of synthesized records by outcome",
			},
			[]string{"variant", "representation", "outcome"},
		),
		gatherer: reg,
	}

	reg.MustRegister(r.TrialDuration, r.TrialRecords, r.TrialFailures, r.AnalyticsDropped, r.Generated)
	return r
}

// ObserveTrial records one trial outcome.
func (r *Recorder) ObserveTrial(kind bench.Kind, d time.Duration, records int, err error) {
	label := string(kind)
	if err != nil {
		r.TrialFailures.WithLabelValues(label).Inc()
		return
	}
	r.TrialDuration.WithLabelValues(label).Observe(d.Seconds())
	r.TrialRecords.WithLabelValues(label).Set(float64(records))
}

// ObserveDropped counts documents dropped by the analytics transform.
func (r *Recorder) ObserveDropped(n int) {
	r.AnalyticsDropped.Add(float64(n))
}

// ObserveGenerated counts the outcome of a bulk generation.
func (r *Recorder) ObserveGenerated(variant types.Variant, rep types.Representation, inserted, failed int) {
	if inserted > 0 {
		r.Generated.WithLabelValues(string(variant), string(rep), OutcomeInserted).Add(float64(inserted))
	}
	if failed > 0 {
		r.Generated.WithLabelValues(string(variant), string(rep), OutcomeFailed).Add(float64(failed))
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
