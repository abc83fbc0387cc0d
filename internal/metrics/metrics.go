package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "echoes"

// Recorder holds the pipeline metrics.
type Recorder struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	stages       *prometheus.HistogramVec
	integrations *prometheus.CounterVec
	inFlight     prometheus.Gauge
}

// New registers the pipeline metrics plus Go runtime and process collectors
// on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome and error kind.",
		}, []string{"outcome", "error_kind"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of completed and failed runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34 minutes
		}),
		stages: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7 minutes
		}, []string{"stage"}),
		integrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrations_total",
			Help:      "Optional integration steps by step and status.",
		}, []string{"step", "status"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Runs currently executing.",
		}),
	}
}

// RunStarted increments the in-flight gauge.
func (r *Recorder) RunStarted() {
	if r == nil {
		return
	}
	r.inFlight.Inc()
}

// RunFinished records a run outcome ("completed" or "failed").
func (r *Recorder) RunFinished(outcome, errorKind string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.inFlight.Dec()
	r.runs.WithLabelValues(outcome, errorKind).Inc()
	r.runDuration.Observe(elapsed.Seconds())
}

// ObserveStage records the duration of one stage.
func (r *Recorder) ObserveStage(stage string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.stages.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// Integration counts an optional step outcome.
func (r *Recorder) Integration(step, status string) {
	if r == nil {
		return
	}
	r.integrations.WithLabelValues(step, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}
