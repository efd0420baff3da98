// Package metrics exposes Prometheus instrumentation for research runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mikeboe/research-assistant/pkg/research"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_runs_total",
			Help: "Total number of research runs by outcome",
		},
		[]string{"outcome"},
	)

	SourcesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_sources_total",
			Help: "Total number of processed sources by result",
		},
		[]string{"result"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_stage_duration_seconds",
			Help:    "Duration of research pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)
)

// Recorder implements research.Recorder on the package collectors.
type Recorder struct{}

var _ research.Recorder = Recorder{}

func (Recorder) RunFinished(outcome string) {
	RunsTotal.WithLabelValues(outcome).Inc()
}

func (Recorder) SourceProcessed(result string) {
	SourcesTotal.WithLabelValues(result).Inc()
}

func (Recorder) StageObserved(step research.Step, d time.Duration) {
	StageDuration.WithLabelValues(string(step)).Observe(d.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
