package ml

import "dgastack/internal/features"

// Label is the final classification of a domain.
type Label string

const (
	LabelBenign Label = "benign"
	LabelDGA    Label = "dga"
)

// Triple carries the three base-model probabilities in the canonical
// order the combiner was fitted with: lexical, ngram, sequence. The
// order is load-bearing; reordering fields between fit and inference
// makes the combiner meaningless.
type Triple struct {
	Lexical  float64 `json:"lexical"`
	Ngram    float64 `json:"ngram"`
	Sequence float64 `json:"sequence"`
}

func (t Triple) vector() []float64 {
	return []float64{t.Lexical, t.Ngram, t.Sequence}
}

// Verdict is the pipeline output: the combined label, the meta-model
// probability of the positive (dga) class, and the raw base
// probabilities for explainability.
type Verdict struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Triple     Triple  `json:"base_probabilities"`
}

// MetaCombiner fuses the base probabilities with a logistic model over
// exactly three inputs. It learns the relative reliability of each base
// model from held-out data instead of hand-tuning a voting rule.
type MetaCombiner struct {
	Core denseLogistic `json:"core"`
	Seed int64         `json:"seed"`
}

// NewMetaCombiner returns an untrained combiner.
func NewMetaCombiner(seed int64) *MetaCombiner {
	return &MetaCombiner{Seed: seed}
}

// Fit trains on held-out base-model triples with binary labels.
func (c *MetaCombiner) Fit(X []Triple, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return ErrShapeMismatch
	}
	dense := make([][]float64, len(X))
	for i, t := range X {
		dense[i] = t.vector()
	}
	c.Core.fit(dense, y, defaultEpochs, defaultLearningRate, c.Seed)
	return nil
}

// Reliability reports the combiner's learned weight for each base
// model, the stacking answer to "which signal does the ensemble trust".
// Weights apply to standardized inputs, so magnitudes are comparable
// across the three models.
func (c *MetaCombiner) Reliability() (map[string]float64, error) {
	if !c.Core.fitted() {
		return nil, features.ErrNotFitted
	}
	return map[string]float64{
		"lexical":  c.Core.Weights[0],
		"ngram":    c.Core.Weights[1],
		"sequence": c.Core.Weights[2],
	}, nil
}

// Predict combines a triple into the final verdict, thresholding the
// meta probability at 0.5.
func (c *MetaCombiner) Predict(t Triple) (Verdict, error) {
	if !c.Core.fitted() {
		return Verdict{}, features.ErrNotFitted
	}

	p := c.Core.predict(t.vector())
	label := LabelBenign
	if p >= 0.5 {
		label = LabelDGA
	}
	return Verdict{Label: label, Confidence: p, Triple: t}, nil
}
