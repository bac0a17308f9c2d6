package ml

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"dgastack/internal/features"
)

// PipelineConfig carries the knobs the pipeline itself honors. Training
// hyperparameters live with the trainer.
type PipelineConfig struct {
	// StripSuffix removes the public suffix during normalization so the
	// models score only the registrable part.
	StripSuffix bool
}

// Pipeline is the stacked inference path: one domain in, one Verdict
// out. All referenced state is frozen after training, so a single
// Pipeline serves concurrent callers without locking.
type Pipeline struct {
	vectorizer *features.NgramVectorizer
	encoder    *features.SequenceEncoder

	lexical  LexicalClassifier
	ngram    NgramClassifier
	sequence SequenceClassifier
	combiner *MetaCombiner

	cfg     PipelineConfig
	metrics MetricsSink
}

// NewPipeline assembles a pipeline from fitted components. It fails with
// ErrNotFitted when any component has not been through Fit, so a
// misconfigured service aborts at startup instead of serving garbage.
func NewPipeline(
	vectorizer *features.NgramVectorizer,
	encoder *features.SequenceEncoder,
	lexical LexicalClassifier,
	ngram NgramClassifier,
	sequence SequenceClassifier,
	combiner *MetaCombiner,
	cfg PipelineConfig,
	metrics MetricsSink,
) (*Pipeline, error) {
	if vectorizer == nil || !vectorizer.Fitted() {
		return nil, features.ErrNotFitted
	}
	if encoder == nil || !encoder.Fitted() {
		return nil, features.ErrNotFitted
	}
	if lexical == nil || ngram == nil || sequence == nil {
		return nil, features.ErrNotFitted
	}
	if combiner == nil || !combiner.Core.fitted() {
		return nil, features.ErrNotFitted
	}
	return &Pipeline{
		vectorizer: vectorizer,
		encoder:    encoder,
		lexical:    lexical,
		ngram:      ngram,
		sequence:   sequence,
		combiner:   combiner,
		cfg:        cfg,
		metrics:    metrics,
	}, nil
}

// Predict classifies a single domain. The three representation/model
// branches are independent and run concurrently; the combiner waits for
// all three. Any branch failure fails the whole call: a partial triple
// is not a valid combiner input, so there is no fallback to a subset of
// models.
func (p *Pipeline) Predict(ctx context.Context, domain string) (Verdict, error) {
	start := time.Now()

	verdict, err := p.predict(ctx, domain)

	if p.metrics != nil {
		p.metrics.LatencyObserve(time.Since(start).Seconds())
		if err != nil {
			p.metrics.FailuresInc()
		} else {
			p.metrics.PredictionsInc()
			p.metrics.ScoreObserve(verdict.Confidence)
			p.metrics.VerdictInc(verdict.Label)
		}
	}
	return verdict, err
}

func (p *Pipeline) predict(ctx context.Context, domain string) (Verdict, error) {
	normalized, err := features.Normalize(domain, p.cfg.StripSuffix)
	if err != nil {
		return Verdict{}, err
	}

	var triple Triple
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		lex, err := features.ExtractLexical(normalized)
		if err != nil {
			return err
		}
		triple.Lexical, err = p.lexical.PredictProba(lex)
		return err
	})
	g.Go(func() error {
		vec, err := p.vectorizer.Transform(normalized)
		if err != nil {
			return err
		}
		triple.Ngram, err = p.ngram.PredictProba(vec)
		return err
	})
	g.Go(func() error {
		seq, err := p.encoder.Transform(normalized)
		if err != nil {
			return err
		}
		triple.Sequence, err = p.sequence.PredictProba(seq)
		return err
	})

	if err := g.Wait(); err != nil {
		return Verdict{}, err
	}

	verdict, err := p.combiner.Predict(triple)
	if err != nil {
		return Verdict{}, err
	}

	log.Debug().
		Str("domain", normalized).
		Str("label", string(verdict.Label)).
		Float64("confidence", verdict.Confidence).
		Float64("p_lexical", triple.Lexical).
		Float64("p_ngram", triple.Ngram).
		Float64("p_sequence", triple.Sequence).
		Msg("classified domain")

	return verdict, nil
}

// PredictBatch classifies domains one by one, stopping at the first
// failure. Callers that want partial progress should loop themselves.
func (p *Pipeline) PredictBatch(ctx context.Context, domains []string) ([]Verdict, error) {
	verdicts := make([]Verdict, 0, len(domains))
	for _, d := range domains {
		v, err := p.Predict(ctx, d)
		if err != nil {
			return verdicts, err
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

// Vectorizer exposes the frozen n-gram state for persistence.
func (p *Pipeline) Vectorizer() *features.NgramVectorizer { return p.vectorizer }

// Encoder exposes the frozen sequence-encoder state for persistence.
func (p *Pipeline) Encoder() *features.SequenceEncoder { return p.encoder }

// Combiner exposes the fitted meta-combiner for persistence.
func (p *Pipeline) Combiner() *MetaCombiner { return p.combiner }
