package ml

import "dgastack/internal/features"

// NgramModel is the default NgramClassifier: logistic regression over the
// sparse TF-IDF vector, trained by SGD. Weights are kept dense (the
// vocabulary is bounded by the training corpus) while per-sample updates
// touch only the indices present in the sample.
type NgramModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Dim     int       `json:"dim"`
	Seed    int64     `json:"seed"`
}

// NewNgramModel returns an untrained model for vectors of the given
// dimensionality (the fitted vocabulary size).
func NewNgramModel(dim int, seed int64) *NgramModel {
	return &NgramModel{Dim: dim, Seed: seed}
}

// Fit trains on a batch of TF-IDF vectors with binary labels.
func (m *NgramModel) Fit(X []features.SparseVector, y []int) error {
	if len(X) == 0 || len(X) != len(y) || m.Dim == 0 {
		return ErrShapeMismatch
	}
	for _, x := range X {
		for idx := range x {
			if idx < 0 || idx >= m.Dim {
				return ErrShapeMismatch
			}
		}
	}

	m.Weights = make([]float64, m.Dim)
	m.Bias = 0

	for epoch := 0; epoch < defaultEpochs; epoch++ {
		for _, i := range permutation(len(X), m.Seed+int64(epoch)) {
			g := sigmoid(m.score(X[i])) - float64(y[i])
			for idx, v := range X[i] {
				m.Weights[idx] -= defaultLearningRate * (g*v + defaultL2*m.Weights[idx])
			}
			m.Bias -= defaultLearningRate * g
		}
	}
	return nil
}

func (m *NgramModel) score(x features.SparseVector) float64 {
	score := m.Bias
	for idx, v := range x {
		score += m.Weights[idx] * v
	}
	return score
}

// PredictProba returns P(dga) for a single vector. Indices outside the
// fit-time vocabulary indicate drifted artifacts and are rejected.
func (m *NgramModel) PredictProba(x features.SparseVector) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, features.ErrNotFitted
	}
	for idx := range x {
		if idx < 0 || idx >= m.Dim {
			return 0, ErrShapeMismatch
		}
	}
	return clampProba(sigmoid(m.score(x))), nil
}
