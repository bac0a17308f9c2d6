package ml

import (
	"errors"
	"testing"

	"dgastack/internal/features"
)

func fittedCombiner(t *testing.T) *MetaCombiner {
	t.Helper()
	X := make([]Triple, 0, 40)
	y := make([]int, 0, 40)
	for i := 0; i < 20; i++ {
		X = append(X, Triple{Lexical: 0.9, Ngram: 0.85, Sequence: 0.92})
		y = append(y, 1)
		X = append(X, Triple{Lexical: 0.1, Ngram: 0.12, Sequence: 0.08})
		y = append(y, 0)
	}
	c := NewMetaCombiner(3)
	if err := c.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return c
}

func TestMetaCombiner_Threshold(t *testing.T) {
	c := fittedCombiner(t)

	v, err := c.Predict(Triple{Lexical: 0.95, Ngram: 0.9, Sequence: 0.9})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if v.Label != LabelDGA || v.Confidence < 0.5 {
		t.Errorf("high triple: label %q confidence %f", v.Label, v.Confidence)
	}

	v, err = c.Predict(Triple{Lexical: 0.05, Ngram: 0.1, Sequence: 0.05})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if v.Label != LabelBenign || v.Confidence >= 0.5 {
		t.Errorf("low triple: label %q confidence %f", v.Label, v.Confidence)
	}
}

func TestMetaCombiner_VerdictCarriesTriple(t *testing.T) {
	c := fittedCombiner(t)

	in := Triple{Lexical: 0.2, Ngram: 0.3, Sequence: 0.4}
	v, err := c.Predict(in)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if v.Triple != in {
		t.Errorf("verdict triple %+v, want %+v", v.Triple, in)
	}
}

func TestMetaCombiner_NotFitted(t *testing.T) {
	c := NewMetaCombiner(1)

	if _, err := c.Predict(Triple{}); !errors.Is(err, features.ErrNotFitted) {
		t.Errorf("Predict: got %v, want ErrNotFitted", err)
	}
	if _, err := c.Reliability(); !errors.Is(err, features.ErrNotFitted) {
		t.Errorf("Reliability: got %v, want ErrNotFitted", err)
	}
}

func TestMetaCombiner_Reliability(t *testing.T) {
	c := fittedCombiner(t)

	w, err := c.Reliability()
	if err != nil {
		t.Fatalf("Reliability: %v", err)
	}
	for _, name := range []string{"lexical", "ngram", "sequence"} {
		if _, ok := w[name]; !ok {
			t.Errorf("missing weight for %q", name)
		}
	}
	// Every base model agreed with the label during fit, so all three
	// learned weights should point the same way.
	for name, weight := range w {
		if weight <= 0 {
			t.Errorf("weight for %q = %f, want positive", name, weight)
		}
	}
}

func TestMetaCombiner_FitRejectsBadShapes(t *testing.T) {
	c := NewMetaCombiner(1)
	if err := c.Fit(nil, nil); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("empty fit: got %v, want ErrShapeMismatch", err)
	}
	if err := c.Fit([]Triple{{}}, []int{0, 1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("length mismatch: got %v, want ErrShapeMismatch", err)
	}
}
