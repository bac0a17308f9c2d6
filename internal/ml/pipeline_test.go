package ml

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"dgastack/internal/features"
)

var benignCorpus = []string{
	"example.com", "google.com", "github.com", "wikipedia.org",
	"amazon.com", "cloudflare.com", "mozilla.org", "apache.org",
	"debian.org", "kernel.org", "golang.org", "python.org",
	"stackoverflow.com", "reddit.com", "twitter.com", "youtube.com",
	"netflix.com", "spotify.com", "dropbox.com", "slack.com",
	"microsoft.com", "apple.com", "adobe.com", "oracle.com",
	"ibm.com", "intel.com", "nvidia.com", "cisco.com",
	"fedora.org", "ubuntu.com", "archlinux.org", "gentoo.org",
	"nytimes.com", "bbc.co.uk", "reuters.com", "bloomberg.com",
	"weather.gov", "nasa.gov", "mit.edu", "stanford.edu",
}

// dgaCorpus generates algorithmically-looking domains from a fixed seed
// so tests are reproducible.
func dgaCorpus(n int) []string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	rng := rand.New(rand.NewSource(7))
	out := make([]string, n)
	for i := range out {
		length := 14 + rng.Intn(9)
		b := make([]byte, length)
		for j := range b {
			b[j] = charset[rng.Intn(len(charset))]
		}
		out[i] = string(b) + ".com"
	}
	return out
}

func trainingCorpus() ([]string, []int) {
	dga := dgaCorpus(len(benignCorpus))
	domains := make([]string, 0, 2*len(benignCorpus))
	labels := make([]int, 0, 2*len(benignCorpus))
	for _, d := range benignCorpus {
		domains = append(domains, d)
		labels = append(labels, 0)
	}
	for _, d := range dga {
		domains = append(domains, d)
		labels = append(labels, 1)
	}
	return domains, labels
}

func trainedPipeline(t *testing.T) *Pipeline {
	t.Helper()
	trainer, err := NewTrainer(TrainerConfig{HoldoutRatio: 0.2, Seed: 42})
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	domains, labels := trainingCorpus()
	p, err := trainer.Train(domains, labels)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	return p
}

func TestPipeline_PredictBenign(t *testing.T) {
	p := trainedPipeline(t)

	v, err := p.Predict(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if v.Label != LabelBenign {
		t.Errorf("label = %q (confidence %f), want benign", v.Label, v.Confidence)
	}
	if v.Confidence >= 0.5 {
		t.Errorf("confidence %f inconsistent with benign label", v.Confidence)
	}
}

func TestPipeline_PredictDGA(t *testing.T) {
	p := trainedPipeline(t)

	v, err := p.Predict(context.Background(), "xqzv9f7mkdw3.com")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if v.Label != LabelDGA {
		t.Errorf("label = %q (confidence %f), want dga", v.Label, v.Confidence)
	}
	if v.Confidence < 0.5 {
		t.Errorf("confidence %f inconsistent with dga label", v.Confidence)
	}
}

func TestPipeline_TripleInRange(t *testing.T) {
	p := trainedPipeline(t)

	for _, d := range []string{"example.com", "xqzv9f7mkdw3.com", "mail.fedora.org"} {
		v, err := p.Predict(context.Background(), d)
		if err != nil {
			t.Fatalf("Predict(%q): %v", d, err)
		}
		for name, pr := range map[string]float64{
			"lexical":    v.Triple.Lexical,
			"ngram":      v.Triple.Ngram,
			"sequence":   v.Triple.Sequence,
			"confidence": v.Confidence,
		} {
			if pr < 0 || pr > 1 {
				t.Errorf("%s probability %f for %q out of [0,1]", name, pr, d)
			}
		}
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	a := trainedPipeline(t)
	b := trainedPipeline(t)

	for _, d := range []string{"example.com", "xqzv9f7mkdw3.com"} {
		va, err := a.Predict(context.Background(), d)
		if err != nil {
			t.Fatalf("Predict(%q): %v", d, err)
		}
		vb, err := b.Predict(context.Background(), d)
		if err != nil {
			t.Fatalf("Predict(%q): %v", d, err)
		}
		if va != vb {
			t.Errorf("retrained pipeline diverges on %q: %+v vs %+v", d, va, vb)
		}
	}
}

func TestPipeline_CaseInsensitive(t *testing.T) {
	p := trainedPipeline(t)

	lower, err := p.Predict(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	upper, err := p.Predict(context.Background(), "EXAMPLE.Com")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if lower != upper {
		t.Errorf("case changed the verdict: %+v vs %+v", lower, upper)
	}
}

func TestPipeline_EmptyDomain(t *testing.T) {
	p := trainedPipeline(t)

	if _, err := p.Predict(context.Background(), "   "); !errors.Is(err, features.ErrEmptyDomain) {
		t.Errorf("expected ErrEmptyDomain, got %v", err)
	}
}

func TestPipeline_PredictBatch(t *testing.T) {
	p := trainedPipeline(t)

	verdicts, err := p.PredictBatch(context.Background(), []string{"example.com", "github.com"})
	if err != nil {
		t.Fatalf("PredictBatch: %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("got %d verdicts, want 2", len(verdicts))
	}

	// A bad domain mid-batch stops the batch and returns the progress so far.
	verdicts, err = p.PredictBatch(context.Background(), []string{"example.com", "", "github.com"})
	if err == nil {
		t.Fatal("expected error for empty domain in batch")
	}
	if len(verdicts) != 1 {
		t.Errorf("got %d partial verdicts, want 1", len(verdicts))
	}
}

func TestNewPipeline_RejectsUnfitted(t *testing.T) {
	p := trainedPipeline(t)

	_, err := NewPipeline(features.NewNgramVectorizer(), p.Encoder(),
		p.lexical, p.ngram, p.sequence, p.Combiner(), PipelineConfig{}, nil)
	if !errors.Is(err, features.ErrNotFitted) {
		t.Errorf("unfitted vectorizer: got %v, want ErrNotFitted", err)
	}

	_, err = NewPipeline(p.Vectorizer(), p.Encoder(),
		p.lexical, p.ngram, p.sequence, NewMetaCombiner(1), PipelineConfig{}, nil)
	if !errors.Is(err, features.ErrNotFitted) {
		t.Errorf("unfitted combiner: got %v, want ErrNotFitted", err)
	}
}

func TestPipeline_SnapshotRestore(t *testing.T) {
	p := trainedPipeline(t)

	artifacts, err := p.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	restored, err := RestorePipeline(artifacts, nil)
	if err != nil {
		t.Fatalf("RestorePipeline: %v", err)
	}

	for _, d := range []string{"example.com", "xqzv9f7mkdw3.com"} {
		want, err := p.Predict(context.Background(), d)
		if err != nil {
			t.Fatalf("Predict(%q): %v", d, err)
		}
		got, err := restored.Predict(context.Background(), d)
		if err != nil {
			t.Fatalf("restored Predict(%q): %v", d, err)
		}
		if got != want {
			t.Errorf("restored pipeline diverges on %q: %+v vs %+v", d, got, want)
		}
	}
}

func TestRestorePipeline_ShapeMismatch(t *testing.T) {
	p := trainedPipeline(t)

	artifacts, err := p.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	bad := artifacts
	bad.Ngram = NewNgramModel(artifacts.Ngram.Dim+1, 1)
	bad.Ngram.Weights = make([]float64, bad.Ngram.Dim)
	if _, err := RestorePipeline(bad, nil); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("drifted ngram dim: got %v, want ErrShapeMismatch", err)
	}

	bad = artifacts
	bad.Sequence = NewSequenceModel(artifacts.Sequence.VocabSize, artifacts.Sequence.SeqLen+5, 1)
	bad.Sequence.Weights = make([]float64, embedDim)
	if _, err := RestorePipeline(bad, nil); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("drifted sequence length: got %v, want ErrShapeMismatch", err)
	}
}
