package ml

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"dgastack/internal/features"
)

// TrainerConfig carries the stacking fit parameters.
type TrainerConfig struct {
	// HoldoutRatio is the fraction of the corpus reserved for fitting the
	// meta-combiner on base-model predictions it did not train on.
	HoldoutRatio float64
	// Seed fixes shuffling and model initialization for reproducible fits.
	Seed int64
	// StripSuffix and Truncate are baked into the resulting pipeline.
	StripSuffix bool
	Truncate    features.TruncatePolicy
	// Metrics is attached to the resulting pipeline; may be nil.
	Metrics MetricsSink
}

// Trainer performs the full stacking fit and produces a frozen Pipeline.
type Trainer struct {
	cfg TrainerConfig
}

// NewTrainer validates the config and returns a trainer.
func NewTrainer(cfg TrainerConfig) (*Trainer, error) {
	if cfg.HoldoutRatio <= 0 || cfg.HoldoutRatio >= 0.5 {
		return nil, fmt.Errorf("ml: holdout ratio must be in (0, 0.5), got %f", cfg.HoldoutRatio)
	}
	return &Trainer{cfg: cfg}, nil
}

// Train fits the feature extractors, the three base models, and the
// meta-combiner from a labeled corpus (0 benign, 1 dga). The vocabularies
// are fitted on the whole corpus (they carry no label information); the
// base models train on the base split only, and the combiner learns from
// their predictions on the held-out split.
func (t *Trainer) Train(domains []string, labels []int) (*Pipeline, error) {
	if len(domains) != len(labels) {
		return nil, fmt.Errorf("ml: %d domains but %d labels", len(domains), len(labels))
	}
	if len(domains) < 20 {
		return nil, fmt.Errorf("ml: corpus too small for stacking fit (%d samples)", len(domains))
	}

	start := time.Now()

	normalized := make([]string, 0, len(domains))
	kept := make([]int, 0, len(labels))
	for i, d := range domains {
		n, err := features.Normalize(d, t.cfg.StripSuffix)
		if err != nil {
			log.Warn().Str("domain", d).Err(err).Msg("dropping unusable training domain")
			continue
		}
		normalized = append(normalized, n)
		kept = append(kept, labels[i])
	}
	if err := requireBothClasses(kept); err != nil {
		return nil, err
	}

	// Deterministic shuffle so the holdout split does not depend on
	// corpus file order.
	order := permutation(len(normalized), t.cfg.Seed)
	shuffledD := make([]string, len(normalized))
	shuffledY := make([]int, len(kept))
	for i, j := range order {
		shuffledD[i] = normalized[j]
		shuffledY[i] = kept[j]
	}

	cut := len(shuffledD) - int(float64(len(shuffledD))*t.cfg.HoldoutRatio)
	baseD, baseY := shuffledD[:cut], shuffledY[:cut]
	holdD, holdY := shuffledD[cut:], shuffledY[cut:]
	if err := requireBothClasses(baseY); err != nil {
		return nil, fmt.Errorf("ml: base split: %w", err)
	}
	if err := requireBothClasses(holdY); err != nil {
		return nil, fmt.Errorf("ml: holdout split: %w", err)
	}

	vectorizer := features.NewNgramVectorizer()
	if err := vectorizer.Fit(shuffledD); err != nil {
		return nil, fmt.Errorf("ml: fit vectorizer: %w", err)
	}
	encoder := features.NewSequenceEncoder(t.cfg.Truncate)
	if err := encoder.Fit(shuffledD); err != nil {
		return nil, fmt.Errorf("ml: fit encoder: %w", err)
	}

	lexModel := NewLexicalModel(t.cfg.Seed)
	ngramModel := NewNgramModel(vectorizer.Dim(), t.cfg.Seed+1)
	seqModel := NewSequenceModel(encoder.VocabSize(), encoder.MaxLen(), t.cfg.Seed+2)

	lexX, ngramX, seqX, err := represent(baseD, vectorizer, encoder)
	if err != nil {
		return nil, fmt.Errorf("ml: derive base features: %w", err)
	}
	if err := lexModel.Fit(lexX, baseY); err != nil {
		return nil, fmt.Errorf("ml: fit lexical model: %w", err)
	}
	if err := ngramModel.Fit(ngramX, baseY); err != nil {
		return nil, fmt.Errorf("ml: fit ngram model: %w", err)
	}
	if err := seqModel.Fit(seqX, baseY); err != nil {
		return nil, fmt.Errorf("ml: fit sequence model: %w", err)
	}

	triples := make([]Triple, len(holdD))
	for i, d := range holdD {
		tr, err := baseTriple(d, vectorizer, encoder, lexModel, ngramModel, seqModel)
		if err != nil {
			return nil, fmt.Errorf("ml: holdout prediction for %q: %w", d, err)
		}
		triples[i] = tr
	}

	combiner := NewMetaCombiner(t.cfg.Seed + 3)
	if err := combiner.Fit(triples, holdY); err != nil {
		return nil, fmt.Errorf("ml: fit combiner: %w", err)
	}

	log.Info().
		Int("samples", len(shuffledD)).
		Int("base_split", len(baseD)).
		Int("holdout_split", len(holdD)).
		Int("ngram_vocab", vectorizer.Dim()).
		Int("char_vocab", encoder.VocabSize()).
		Int("max_len", encoder.MaxLen()).
		Dur("elapsed", time.Since(start)).
		Msg("stacking fit complete")

	return NewPipeline(vectorizer, encoder, lexModel, ngramModel, seqModel, combiner,
		PipelineConfig{StripSuffix: t.cfg.StripSuffix}, t.cfg.Metrics)
}

func requireBothClasses(y []int) error {
	var pos, neg int
	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return fmt.Errorf("ml: need both classes, got %d dga / %d benign", pos, neg)
	}
	return nil
}

func represent(domains []string, v *features.NgramVectorizer, e *features.SequenceEncoder) ([]features.Lexical, []features.SparseVector, [][]int, error) {
	lexX := make([]features.Lexical, len(domains))
	ngramX := make([]features.SparseVector, len(domains))
	seqX := make([][]int, len(domains))

	for i, d := range domains {
		lex, err := features.ExtractLexical(d)
		if err != nil {
			return nil, nil, nil, err
		}
		vec, err := v.Transform(d)
		if err != nil {
			return nil, nil, nil, err
		}
		seq, err := e.Transform(d)
		if err != nil {
			return nil, nil, nil, err
		}
		lexX[i], ngramX[i], seqX[i] = lex, vec, seq
	}
	return lexX, ngramX, seqX, nil
}

func baseTriple(domain string, v *features.NgramVectorizer, e *features.SequenceEncoder,
	lm LexicalClassifier, nm NgramClassifier, sm SequenceClassifier,
) (Triple, error) {
	var triple Triple

	lex, err := features.ExtractLexical(domain)
	if err != nil {
		return triple, err
	}
	if triple.Lexical, err = lm.PredictProba(lex); err != nil {
		return triple, err
	}

	vec, err := v.Transform(domain)
	if err != nil {
		return triple, err
	}
	if triple.Ngram, err = nm.PredictProba(vec); err != nil {
		return triple, err
	}

	seq, err := e.Transform(domain)
	if err != nil {
		return triple, err
	}
	if triple.Sequence, err = sm.PredictProba(seq); err != nil {
		return triple, err
	}

	return triple, nil
}
