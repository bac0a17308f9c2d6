package ml

import (
	"fmt"
	"time"

	"dgastack/internal/features"
)

// Artifacts is the JSON-serializable snapshot of every piece of fitted
// state a pipeline needs: the two vocabularies, the three base-model
// parameter sets, and the combiner. The storage layer persists it as a
// single record; consumers load it once and treat it as immutable.
type Artifacts struct {
	NgramVocab map[string]int `json:"ngram_vocab"`
	IDF        []float64      `json:"idf"`
	CharVocab  map[string]int `json:"char_vocab"`
	MaxLen     int            `json:"max_len"`

	Lexical  *LexicalModel  `json:"lexical"`
	Ngram    *NgramModel    `json:"ngram"`
	Sequence *SequenceModel `json:"sequence"`
	Combiner *MetaCombiner  `json:"combiner"`

	StripSuffix bool                    `json:"strip_suffix"`
	Truncate    features.TruncatePolicy `json:"truncate_policy"`
	TrainedAt   time.Time               `json:"trained_at"`
}

// Snapshot exports the pipeline's fitted state. Only the default model
// implementations are snapshottable; a pipeline assembled around custom
// classifiers has to bring its own persistence.
func (p *Pipeline) Snapshot() (Artifacts, error) {
	lex, ok := p.lexical.(*LexicalModel)
	if !ok {
		return Artifacts{}, fmt.Errorf("ml: lexical model %T is not snapshottable", p.lexical)
	}
	ngram, ok := p.ngram.(*NgramModel)
	if !ok {
		return Artifacts{}, fmt.Errorf("ml: ngram model %T is not snapshottable", p.ngram)
	}
	seq, ok := p.sequence.(*SequenceModel)
	if !ok {
		return Artifacts{}, fmt.Errorf("ml: sequence model %T is not snapshottable", p.sequence)
	}

	ngramVocab, idf := p.vectorizer.Snapshot()
	charVocab, maxLen := p.encoder.Snapshot()

	return Artifacts{
		NgramVocab:  ngramVocab,
		IDF:         idf,
		CharVocab:   charVocab,
		MaxLen:      maxLen,
		Lexical:     lex,
		Ngram:       ngram,
		Sequence:    seq,
		Combiner:    p.combiner,
		StripSuffix: p.cfg.StripSuffix,
		Truncate:    p.encoder.Policy(),
		TrainedAt:   time.Now().UTC(),
	}, nil
}

// RestorePipeline rebuilds a frozen pipeline from persisted artifacts.
func RestorePipeline(a Artifacts, metrics MetricsSink) (*Pipeline, error) {
	if a.Lexical == nil || a.Ngram == nil || a.Sequence == nil || a.Combiner == nil {
		return nil, features.ErrNotFitted
	}

	vectorizer := features.RestoreNgramVectorizer(a.NgramVocab, a.IDF)
	encoder := features.RestoreSequenceEncoder(a.CharVocab, a.MaxLen, a.Truncate)

	if a.Ngram.Dim != vectorizer.Dim() {
		return nil, fmt.Errorf("ml: ngram model dim %d vs vocabulary %d: %w",
			a.Ngram.Dim, vectorizer.Dim(), ErrShapeMismatch)
	}
	if a.Sequence.SeqLen != encoder.MaxLen() || a.Sequence.VocabSize != encoder.VocabSize() {
		return nil, fmt.Errorf("ml: sequence model shape (%d,%d) vs encoder (%d,%d): %w",
			a.Sequence.SeqLen, a.Sequence.VocabSize, encoder.MaxLen(), encoder.VocabSize(), ErrShapeMismatch)
	}

	return NewPipeline(vectorizer, encoder, a.Lexical, a.Ngram, a.Sequence, a.Combiner,
		PipelineConfig{StripSuffix: a.StripSuffix}, metrics)
}
