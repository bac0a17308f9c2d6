package ml

import (
	"testing"

	"dgastack/internal/features"
)

func TestNewTrainer_ValidatesHoldoutRatio(t *testing.T) {
	for _, ratio := range []float64{0, -0.1, 0.5, 0.9} {
		if _, err := NewTrainer(TrainerConfig{HoldoutRatio: ratio}); err == nil {
			t.Errorf("ratio %f accepted, want error", ratio)
		}
	}
	if _, err := NewTrainer(TrainerConfig{HoldoutRatio: 0.2}); err != nil {
		t.Errorf("ratio 0.2 rejected: %v", err)
	}
}

func TestTrain_RejectsMismatchedLengths(t *testing.T) {
	trainer, err := NewTrainer(TrainerConfig{HoldoutRatio: 0.2, Seed: 1})
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	domains, labels := trainingCorpus()
	if _, err := trainer.Train(domains, labels[:len(labels)-1]); err == nil {
		t.Error("mismatched lengths accepted, want error")
	}
}

func TestTrain_RejectsTinyCorpus(t *testing.T) {
	trainer, err := NewTrainer(TrainerConfig{HoldoutRatio: 0.2, Seed: 1})
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	if _, err := trainer.Train(
		[]string{"example.com", "qx9vz.com"}, []int{0, 1}); err == nil {
		t.Error("tiny corpus accepted, want error")
	}
}

func TestTrain_RejectsSingleClass(t *testing.T) {
	trainer, err := NewTrainer(TrainerConfig{HoldoutRatio: 0.2, Seed: 1})
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}

	domains, _ := trainingCorpus()
	labels := make([]int, len(domains))
	if _, err := trainer.Train(domains, labels); err == nil {
		t.Error("all-benign corpus accepted, want error")
	}
}

func TestTrain_DropsUnusableDomains(t *testing.T) {
	trainer, err := NewTrainer(TrainerConfig{HoldoutRatio: 0.2, Seed: 42})
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}

	domains, labels := trainingCorpus()
	domains = append(domains, "", "   ")
	labels = append(labels, 0, 1)

	p, err := trainer.Train(domains, labels)
	if err != nil {
		t.Fatalf("Train with blank entries: %v", err)
	}
	if p == nil {
		t.Fatal("nil pipeline")
	}
}

func TestTrain_RejectPolicyBakedIn(t *testing.T) {
	trainer, err := NewTrainer(TrainerConfig{
		HoldoutRatio: 0.2,
		Seed:         42,
		Truncate:     features.Reject,
	})
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	domains, labels := trainingCorpus()
	p, err := trainer.Train(domains, labels)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if p.Encoder().Policy() != features.Reject {
		t.Error("reject policy not carried into the pipeline encoder")
	}
}

func TestTrain_CombinerSeesHoldout(t *testing.T) {
	p := trainedPipeline(t)

	// A trained combiner reports reliability weights for all three models.
	w, err := p.Combiner().Reliability()
	if err != nil {
		t.Fatalf("Reliability: %v", err)
	}
	if len(w) != 3 {
		t.Errorf("got %d reliability weights, want 3", len(w))
	}
}
