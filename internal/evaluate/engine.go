// Package evaluate measures classifier quality on a held-back test
// split: it trains a fresh pipeline on the training portion of a labeled
// corpus and scores the remainder, producing a confusion matrix and the
// derived metrics.
package evaluate

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"dgastack/internal/dataset"
	"dgastack/internal/ml"
)

// Results holds the outcome of one evaluation run.
type Results struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	TrainSamples int `json:"train_samples"`
	TestSamples  int `json:"test_samples"`

	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalseNegatives int `json:"false_negatives"`

	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	// BaseAccuracy scores each base model on its own, thresholding its
	// probability at 0.5, to show what the stacking adds.
	BaseAccuracy map[string]float64 `json:"base_accuracy"`

	// Misclassified keeps a sample of wrong verdicts for inspection.
	Misclassified []Misclassification `json:"misclassified"`
}

// Misclassification records one wrong verdict with its base
// probabilities.
type Misclassification struct {
	Domain   string     `json:"domain"`
	Expected ml.Label   `json:"expected"`
	Verdict  ml.Verdict `json:"verdict"`
}

const maxMisclassifiedKept = 50

// Engine runs train-then-score evaluation rounds.
type Engine struct {
	trainCfg  ml.TrainerConfig
	testRatio float64
}

// NewEngine validates the split ratio and returns an engine.
func NewEngine(trainCfg ml.TrainerConfig, testRatio float64) (*Engine, error) {
	if testRatio <= 0 || testRatio >= 0.5 {
		return nil, fmt.Errorf("evaluate: test ratio must be in (0, 0.5), got %f", testRatio)
	}
	return &Engine{trainCfg: trainCfg, testRatio: testRatio}, nil
}

// Run splits the corpus, trains a pipeline on the larger portion, and
// scores the test portion. The split shuffle is seeded from the trainer
// config so runs are reproducible.
func (e *Engine) Run(ctx context.Context, corpus *dataset.Corpus) (*Results, error) {
	if corpus.Len() == 0 {
		return nil, fmt.Errorf("evaluate: empty corpus")
	}

	results := &Results{StartTime: time.Now()}

	rng := rand.New(rand.NewSource(e.trainCfg.Seed))
	order := rng.Perm(corpus.Len())

	cut := corpus.Len() - int(float64(corpus.Len())*e.testRatio)
	trainD := make([]string, 0, cut)
	trainY := make([]int, 0, cut)
	testD := make([]string, 0, corpus.Len()-cut)
	testY := make([]int, 0, corpus.Len()-cut)

	for i, j := range order {
		if i < cut {
			trainD = append(trainD, corpus.Domains[j])
			trainY = append(trainY, corpus.Labels[j])
		} else {
			testD = append(testD, corpus.Domains[j])
			testY = append(testY, corpus.Labels[j])
		}
	}
	results.TrainSamples = len(trainD)
	results.TestSamples = len(testD)

	trainer, err := ml.NewTrainer(e.trainCfg)
	if err != nil {
		return nil, err
	}
	pipeline, err := trainer.Train(trainD, trainY)
	if err != nil {
		return nil, fmt.Errorf("evaluate: training failed: %w", err)
	}

	var lexHits, ngramHits, seqHits, scored int
	for i, d := range testD {
		verdict, err := pipeline.Predict(ctx, d)
		if err != nil {
			log.Warn().Str("domain", d).Err(err).Msg("skipping unclassifiable test domain")
			continue
		}

		expected := ml.LabelBenign
		if testY[i] == 1 {
			expected = ml.LabelDGA
		}

		scored++
		if (verdict.Triple.Lexical >= 0.5) == (testY[i] == 1) {
			lexHits++
		}
		if (verdict.Triple.Ngram >= 0.5) == (testY[i] == 1) {
			ngramHits++
		}
		if (verdict.Triple.Sequence >= 0.5) == (testY[i] == 1) {
			seqHits++
		}

		switch {
		case verdict.Label == ml.LabelDGA && expected == ml.LabelDGA:
			results.TruePositives++
		case verdict.Label == ml.LabelDGA && expected == ml.LabelBenign:
			results.FalsePositives++
		case verdict.Label == ml.LabelBenign && expected == ml.LabelBenign:
			results.TrueNegatives++
		default:
			results.FalseNegatives++
		}

		if verdict.Label != expected && len(results.Misclassified) < maxMisclassifiedKept {
			results.Misclassified = append(results.Misclassified, Misclassification{
				Domain:   d,
				Expected: expected,
				Verdict:  verdict,
			})
		}
	}

	if scored > 0 {
		results.BaseAccuracy = map[string]float64{
			"lexical":  float64(lexHits) / float64(scored),
			"ngram":    float64(ngramHits) / float64(scored),
			"sequence": float64(seqHits) / float64(scored),
		}
	}

	results.EndTime = time.Now()
	results.finalize()

	log.Info().
		Int("train", results.TrainSamples).
		Int("test", results.TestSamples).
		Float64("accuracy", results.Accuracy).
		Float64("f1", results.F1).
		Msg("evaluation complete")

	return results, nil
}

func (r *Results) finalize() {
	scored := r.TruePositives + r.FalsePositives + r.TrueNegatives + r.FalseNegatives
	if scored > 0 {
		r.Accuracy = float64(r.TruePositives+r.TrueNegatives) / float64(scored)
	}
	if r.TruePositives+r.FalsePositives > 0 {
		r.Precision = float64(r.TruePositives) / float64(r.TruePositives+r.FalsePositives)
	}
	if r.TruePositives+r.FalseNegatives > 0 {
		r.Recall = float64(r.TruePositives) / float64(r.TruePositives+r.FalseNegatives)
	}
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
}
