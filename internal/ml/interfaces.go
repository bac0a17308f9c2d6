// Package ml implements the stacking ensemble that decides whether a
// domain name is algorithmically generated. Three base classifiers score
// the same domain from three independent representations (lexical
// descriptors, character n-grams, character sequence); a meta-combiner
// trained on held-out base predictions fuses the three probabilities
// into the final verdict.
//
// All fitted state is frozen once training completes, so a Pipeline is
// safe for concurrent inference without locking.
package ml

import (
	"errors"

	"dgastack/internal/features"
)

// ErrShapeMismatch is returned when a base model receives input whose
// dimensionality differs from what it saw at fit time, e.g. after
// vocabulary drift between training and inference artifacts.
var ErrShapeMismatch = errors.New("ml: feature shape mismatch")

// LexicalClassifier scores a domain from its hand-crafted descriptors.
// Implementations are swappable; the pipeline only relies on this
// fit/predict contract.
type LexicalClassifier interface {
	Fit(X []features.Lexical, y []int) error
	PredictProba(x features.Lexical) (float64, error)
}

// NgramClassifier scores a domain from its TF-IDF n-gram vector.
type NgramClassifier interface {
	Fit(X []features.SparseVector, y []int) error
	PredictProba(x features.SparseVector) (float64, error)
}

// SequenceClassifier scores a domain from its encoded character sequence.
type SequenceClassifier interface {
	Fit(X [][]int, y []int) error
	PredictProba(x []int) (float64, error)
}

// MetricsSink receives pipeline observability events. The concrete
// implementation lives in internal/metrics; a nil sink disables tracking.
type MetricsSink interface {
	PredictionsInc()
	FailuresInc()
	LatencyObserve(float64)
	ScoreObserve(float64)
	VerdictInc(label Label)
}
