package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the story pipeline
type Metrics struct {
	PipelineRuns     *prometheus.CounterVec
	StepFailures     *prometheus.CounterVec
	ImageAttempts    prometheus.Counter
	ImageFallbacks   prometheus.Counter
	PipelineDuration prometheus.Histogram
}

// New registers the pipeline collectors on reg. Tests pass a fresh
// prometheus.NewRegistry to stay isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mira_pipeline_runs_total",
			Help: "Completed pipeline runs by terminal status",
		}, []string{"status"}),
		StepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mira_pipeline_step_failures_total",
			Help: "Pipeline step failures by step name",
		}, []string{"step"}),
		ImageAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_image_generation_attempts_total",
			Help: "Image generation attempts across all vendors",
		}),
		ImageFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_image_generation_fallbacks_total",
			Help: "Image generation attempts routed to the fallback vendor",
		}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mira_pipeline_duration_seconds",
			Help:    "End-to-end pipeline run duration",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}
