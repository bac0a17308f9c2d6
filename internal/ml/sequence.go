package ml

import (
	"math/rand"

	"dgastack/internal/features"
)

const embedDim = 16

// SequenceModel is the default SequenceClassifier: learned character
// embeddings mean-pooled over the non-padding prefix, feeding a logistic
// head. Embeddings and head are trained jointly by SGD. Padding keeps a
// zero embedding and is excluded from the pool, so the padded tail of a
// short domain cannot shift its score.
type SequenceModel struct {
	Embed     [][]float64 `json:"embed"`
	Weights   []float64   `json:"weights"`
	Bias      float64     `json:"bias"`
	VocabSize int         `json:"vocab_size"`
	SeqLen    int         `json:"seq_len"`
	Seed      int64       `json:"seed"`
}

// NewSequenceModel returns an untrained model for sequences of length
// seqLen over vocabSize character indices (reserved indices included).
func NewSequenceModel(vocabSize, seqLen int, seed int64) *SequenceModel {
	return &SequenceModel{VocabSize: vocabSize, SeqLen: seqLen, Seed: seed}
}

func (m *SequenceModel) init() {
	rng := rand.New(rand.NewSource(m.Seed))
	m.Embed = make([][]float64, m.VocabSize)
	for i := range m.Embed {
		m.Embed[i] = make([]float64, embedDim)
		if i == features.PadIndex {
			continue
		}
		for j := range m.Embed[i] {
			m.Embed[i][j] = (rng.Float64() - 0.5) * 0.1
		}
	}
	m.Weights = make([]float64, embedDim)
	for j := range m.Weights {
		m.Weights[j] = (rng.Float64() - 0.5) * 0.1
	}
	m.Bias = 0
}

// pool mean-pools the embeddings of the non-padding prefix. Returns the
// pooled vector and the prefix length.
func (m *SequenceModel) pool(x []int) ([]float64, int) {
	pooled := make([]float64, embedDim)
	n := 0
	for _, idx := range x {
		if idx == features.PadIndex {
			break
		}
		for j, v := range m.Embed[idx] {
			pooled[j] += v
		}
		n++
	}
	if n > 0 {
		for j := range pooled {
			pooled[j] /= float64(n)
		}
	}
	return pooled, n
}

func (m *SequenceModel) checkShape(x []int) error {
	if len(x) != m.SeqLen {
		return ErrShapeMismatch
	}
	for _, idx := range x {
		if idx < 0 || idx >= m.VocabSize {
			return ErrShapeMismatch
		}
	}
	return nil
}

// Fit trains embeddings and head on a batch of encoded sequences with
// binary labels.
func (m *SequenceModel) Fit(X [][]int, y []int) error {
	if len(X) == 0 || len(X) != len(y) || m.VocabSize == 0 || m.SeqLen == 0 {
		return ErrShapeMismatch
	}
	for _, x := range X {
		if err := m.checkShape(x); err != nil {
			return err
		}
	}

	m.init()
	lr := defaultLearningRate

	for epoch := 0; epoch < defaultEpochs; epoch++ {
		for _, i := range permutation(len(X), m.Seed+int64(epoch)) {
			pooled, n := m.pool(X[i])
			if n == 0 {
				continue
			}

			score := m.Bias
			for j, v := range pooled {
				score += m.Weights[j] * v
			}
			g := sigmoid(score) - float64(y[i])

			scale := g / float64(n)
			for _, idx := range X[i] {
				if idx == features.PadIndex {
					break
				}
				for j := range m.Embed[idx] {
					m.Embed[idx][j] -= lr * scale * m.Weights[j]
				}
			}
			for j, v := range pooled {
				m.Weights[j] -= lr * (g*v + defaultL2*m.Weights[j])
			}
			m.Bias -= lr * g
		}
	}
	return nil
}

// PredictProba returns P(dga) for a single encoded sequence.
func (m *SequenceModel) PredictProba(x []int) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, features.ErrNotFitted
	}
	if err := m.checkShape(x); err != nil {
		return 0, err
	}

	pooled, n := m.pool(x)
	if n == 0 {
		return 0, features.ErrEmptyDomain
	}
	score := m.Bias
	for j, v := range pooled {
		score += m.Weights[j] * v
	}
	return clampProba(sigmoid(score)), nil
}
