package evaluate

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"dgastack/internal/dataset"
	"dgastack/internal/ml"
)

func testCorpus() *dataset.Corpus {
	benign := []string{
		"example.com", "google.com", "github.com", "wikipedia.org",
		"amazon.com", "cloudflare.com", "mozilla.org", "apache.org",
		"debian.org", "kernel.org", "golang.org", "python.org",
		"stackoverflow.com", "reddit.com", "twitter.com", "youtube.com",
		"netflix.com", "spotify.com", "dropbox.com", "slack.com",
		"microsoft.com", "apple.com", "adobe.com", "oracle.com",
		"fedora.org", "ubuntu.com", "archlinux.org", "gentoo.org",
		"nytimes.com", "reuters.com", "bloomberg.com", "nasa.gov",
	}

	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	rng := rand.New(rand.NewSource(11))
	dga := make([]string, len(benign))
	for i := range dga {
		length := 14 + rng.Intn(9)
		b := make([]byte, length)
		for j := range b {
			b[j] = charset[rng.Intn(len(charset))]
		}
		dga[i] = string(b) + ".com"
	}

	c := &dataset.Corpus{}
	c.Append(benign, 0)
	c.Append(dga, 1)
	return c
}

func TestEngine_Run(t *testing.T) {
	engine, err := NewEngine(ml.TrainerConfig{HoldoutRatio: 0.2, Seed: 42}, 0.25)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	corpus := testCorpus()
	results, err := engine.Run(context.Background(), corpus)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if results.TrainSamples+results.TestSamples != corpus.Len() {
		t.Errorf("split sizes %d+%d do not cover corpus of %d",
			results.TrainSamples, results.TestSamples, corpus.Len())
	}
	scored := results.TruePositives + results.FalsePositives +
		results.TrueNegatives + results.FalseNegatives
	if scored != results.TestSamples {
		t.Errorf("confusion matrix covers %d samples, want %d", scored, results.TestSamples)
	}
	for name, m := range map[string]float64{
		"accuracy":  results.Accuracy,
		"precision": results.Precision,
		"recall":    results.Recall,
		"f1":        results.F1,
	} {
		if m < 0 || m > 1 {
			t.Errorf("%s = %f out of [0,1]", name, m)
		}
	}
	if results.Accuracy < 0.5 {
		t.Errorf("accuracy %f on cleanly separable corpus", results.Accuracy)
	}
	if len(results.BaseAccuracy) != 3 {
		t.Errorf("got %d base accuracies, want 3", len(results.BaseAccuracy))
	}
	for name, acc := range results.BaseAccuracy {
		if acc < 0 || acc > 1 {
			t.Errorf("base accuracy %s = %f out of [0,1]", name, acc)
		}
	}
	if len(results.Misclassified) > results.TestSamples {
		t.Errorf("%d misclassifications recorded for %d test samples",
			len(results.Misclassified), results.TestSamples)
	}
}

func TestEngine_RejectsBadTestRatio(t *testing.T) {
	for _, ratio := range []float64{0, -0.2, 0.5, 1.0} {
		if _, err := NewEngine(ml.TrainerConfig{HoldoutRatio: 0.2}, ratio); err == nil {
			t.Errorf("test ratio %f accepted, want error", ratio)
		}
	}
}

func TestEngine_EmptyCorpus(t *testing.T) {
	engine, err := NewEngine(ml.TrainerConfig{HoldoutRatio: 0.2, Seed: 1}, 0.25)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := engine.Run(context.Background(), &dataset.Corpus{}); err == nil {
		t.Error("empty corpus accepted, want error")
	}
}

func TestResults_Finalize(t *testing.T) {
	r := Results{
		TruePositives:  8,
		FalsePositives: 2,
		TrueNegatives:  9,
		FalseNegatives: 1,
	}
	r.finalize()

	const eps = 1e-9
	if math.Abs(r.Accuracy-0.85) > eps {
		t.Errorf("accuracy = %f, want 0.85", r.Accuracy)
	}
	if math.Abs(r.Precision-0.8) > eps {
		t.Errorf("precision = %f, want 0.8", r.Precision)
	}
	if math.Abs(r.Recall-8.0/9.0) > eps {
		t.Errorf("recall = %f, want %f", r.Recall, 8.0/9.0)
	}
	wantF1 := 2 * 0.8 * (8.0 / 9.0) / (0.8 + 8.0/9.0)
	if math.Abs(r.F1-wantF1) > eps {
		t.Errorf("f1 = %f, want %f", r.F1, wantF1)
	}
}

func TestResults_FinalizeDegenerate(t *testing.T) {
	var r Results
	r.finalize()
	if r.Accuracy != 0 || r.Precision != 0 || r.Recall != 0 || r.F1 != 0 {
		t.Errorf("empty results produced nonzero metrics: %+v", r)
	}
}
