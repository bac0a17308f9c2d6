package ml

import (
	"math"
	"math/rand"
)

// Training hyperparameters shared by the logistic base models. They are
// deliberately conservative; the combiner compensates for miscalibrated
// base models.
const (
	defaultEpochs       = 30
	defaultLearningRate = 0.1
	defaultL2           = 1e-4
)

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// clampProba keeps probabilities inside [0,1] against float drift.
func clampProba(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// permutation returns a reproducible shuffle of [0,n) for epoch ordering.
// A fixed seed keeps training deterministic run to run.
func permutation(n int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	return rng.Perm(n)
}

// denseLogistic is a plain logistic regression trained by SGD over dense
// feature vectors, with per-feature standardization captured at fit time.
type denseLogistic struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
}

func (m *denseLogistic) fitted() bool {
	return len(m.Weights) > 0
}

func (m *denseLogistic) standardize(x []float64) []float64 {
	z := make([]float64, len(x))
	for i := range x {
		z[i] = (x[i] - m.Mean[i]) / m.Std[i]
	}
	return z
}

func (m *denseLogistic) fit(X [][]float64, y []int, epochs int, lr float64, seed int64) {
	dim := len(X[0])
	m.Mean = make([]float64, dim)
	m.Std = make([]float64, dim)

	for _, x := range X {
		for i, v := range x {
			m.Mean[i] += v
		}
	}
	n := float64(len(X))
	for i := range m.Mean {
		m.Mean[i] /= n
	}
	for _, x := range X {
		for i, v := range x {
			d := v - m.Mean[i]
			m.Std[i] += d * d
		}
	}
	for i := range m.Std {
		m.Std[i] = math.Sqrt(m.Std[i] / n)
		if m.Std[i] == 0 {
			m.Std[i] = 1
		}
	}

	m.Weights = make([]float64, dim)
	m.Bias = 0

	for epoch := 0; epoch < epochs; epoch++ {
		for _, idx := range permutation(len(X), seed+int64(epoch)) {
			z := m.standardize(X[idx])
			var score float64
			for i, v := range z {
				score += m.Weights[i] * v
			}
			g := sigmoid(score+m.Bias) - float64(y[idx])
			for i, v := range z {
				m.Weights[i] -= lr * (g*v + defaultL2*m.Weights[i])
			}
			m.Bias -= lr * g
		}
	}
}

func (m *denseLogistic) predict(x []float64) float64 {
	z := m.standardize(x)
	var score float64
	for i, v := range z {
		score += m.Weights[i] * v
	}
	return clampProba(sigmoid(score + m.Bias))
}
