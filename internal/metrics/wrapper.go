package metrics

import "dgastack/internal/ml"

// Wrapper adapts Metrics to the ml.MetricsSink interface consumed by the
// inference pipeline, keeping the ml package free of a Prometheus
// dependency.
type Wrapper struct {
	m *Metrics
}

// NewWrapper wraps a Metrics set.
func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) PredictionsInc() { w.m.Predictions.Inc() }

func (w *Wrapper) FailuresInc() {
	w.m.Failures.Inc()
	w.m.ErrorsTotal.Inc()
}

func (w *Wrapper) LatencyObserve(seconds float64) { w.m.Latency.Observe(seconds) }

func (w *Wrapper) ScoreObserve(score float64) { w.m.PredictionScores.Observe(score) }

func (w *Wrapper) VerdictInc(label ml.Label) {
	w.m.Verdicts.WithLabelValues(string(label)).Inc()
}
