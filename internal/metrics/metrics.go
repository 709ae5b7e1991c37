package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes gather and reconciliation metrics on its own registry.
type Recorder struct {
	registry       *prometheus.Registry
	sourceOutcomes *prometheus.CounterVec
	sourceLatency  *prometheus.HistogramVec
	agreement      *prometheus.GaugeVec
	estimateErrors *prometheus.CounterVec
}

// New creates a Recorder with Go runtime and process collectors attached.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sourceOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earningswatch_source_outcomes_total",
				Help: "Source queries by outcome (found, no_data, failed)",
			},
			[]string{"source", "outcome"},
		),
		sourceLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "earningswatch_source_duration_seconds",
				Help:    "Time spent fetching and extracting one source",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		agreement: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "earningswatch_guess_agreement_percent",
				Help: "Share of sources agreeing with the latest best guess",
			},
			[]string{"symbol"},
		),
		estimateErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earningswatch_estimate_errors_total",
				Help: "Estimates that could not be produced, by reason",
			},
			[]string{"reason"},
		),
	}

	r.registry.MustRegister(
		r.sourceOutcomes,
		r.sourceLatency,
		r.agreement,
		r.estimateErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveSource records one source query.
func (r *Recorder) ObserveSource(source, outcome string, elapsed time.Duration) {
	r.sourceOutcomes.WithLabelValues(source, outcome).Inc()
	r.sourceLatency.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveAgreement records the agreement percentage of a symbol's best guess.
func (r *Recorder) ObserveAgreement(symbol string, percent float64) {
	r.agreement.WithLabelValues(symbol).Set(percent)
}

// ObserveEstimateError counts a failed estimate.
func (r *Recorder) ObserveEstimateError(reason string) {
	r.estimateErrors.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
