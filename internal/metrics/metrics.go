// Package metrics provides Prometheus metrics for the DGA classifier.
// It covers the inference pipeline (prediction counts, latency, score
// distribution, per-label verdicts), the training phase, and the live
// domain ingest stream.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the classifier daemon.
type Metrics struct {
	// Inference metrics
	Predictions      prometheus.Counter   // Total number of completed classifications
	Failures         prometheus.Counter   // Total number of failed classifications
	Latency          prometheus.Histogram // End-to-end classification latency in seconds
	PredictionScores prometheus.Histogram // Distribution of meta-combiner confidence scores
	Verdicts         *prometheus.CounterVec // Verdicts by label

	// Model metrics
	ModelAge         prometheus.Gauge // Age of the loaded artifacts in seconds
	TrainingDuration prometheus.Gauge // Duration of the last training run in seconds

	// Ingest metrics
	DomainsIngested  prometheus.Counter // Total number of domains received from the stream
	StreamReconnects prometheus.Counter // Total number of stream reconnections

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "dga_predictions_total",
			Help: "Total number of completed classifications",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dga_prediction_failures_total",
			Help: "Total number of failed classifications",
		}),
		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dga_prediction_latency_seconds",
			Help:    "End-to-end classification latency in seconds",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dga_prediction_scores",
			Help:    "Distribution of meta-combiner confidence scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dga_verdicts_total",
			Help: "Verdicts by label",
		}, []string{"label"}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dga_model_age_seconds",
			Help: "Age of the loaded model artifacts in seconds",
		}),
		TrainingDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dga_training_duration_seconds",
			Help: "Duration of the last training run in seconds",
		}),
		DomainsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "dga_domains_ingested_total",
			Help: "Total number of domains received from the stream",
		}),
		StreamReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "dga_stream_reconnects_total",
			Help: "Total number of stream reconnections",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dga_errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
