package ml

import "dgastack/internal/features"

// LexicalModel is the default LexicalClassifier: logistic regression over
// the standardized [length, entropy] vector. Two features are enough for
// this branch; its value in the stack is being biased differently from
// the two vocabulary-driven models.
type LexicalModel struct {
	Core denseLogistic `json:"core"`
	Seed int64         `json:"seed"`
}

// NewLexicalModel returns an untrained model with a fixed training seed.
func NewLexicalModel(seed int64) *LexicalModel {
	return &LexicalModel{Seed: seed}
}

// Fit trains on a batch of lexical descriptors with binary labels
// (0 benign, 1 dga).
func (m *LexicalModel) Fit(X []features.Lexical, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return ErrShapeMismatch
	}
	dense := make([][]float64, len(X))
	for i, f := range X {
		dense[i] = f.Vector()
	}
	m.Core.fit(dense, y, defaultEpochs, defaultLearningRate, m.Seed)
	return nil
}

// PredictProba returns P(dga) for a single descriptor set.
func (m *LexicalModel) PredictProba(x features.Lexical) (float64, error) {
	if !m.Core.fitted() {
		return 0, features.ErrNotFitted
	}
	v := x.Vector()
	if len(v) != len(m.Core.Weights) {
		return 0, ErrShapeMismatch
	}
	return m.Core.predict(v), nil
}
