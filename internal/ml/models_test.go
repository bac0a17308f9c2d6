package ml

import (
	"errors"
	"testing"

	"dgastack/internal/features"
)

func TestLexicalModel_NotFitted(t *testing.T) {
	m := NewLexicalModel(1)
	if _, err := m.PredictProba(features.Lexical{Length: 10, Entropy: 3.0}); !errors.Is(err, features.ErrNotFitted) {
		t.Errorf("got %v, want ErrNotFitted", err)
	}
}

func TestLexicalModel_Separates(t *testing.T) {
	X := make([]features.Lexical, 0, 40)
	y := make([]int, 0, 40)
	for i := 0; i < 20; i++ {
		X = append(X, features.Lexical{Length: 8 + i%4, Entropy: 2.4})
		y = append(y, 0)
		X = append(X, features.Lexical{Length: 22 + i%4, Entropy: 4.3})
		y = append(y, 1)
	}

	m := NewLexicalModel(1)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	low, err := m.PredictProba(features.Lexical{Length: 9, Entropy: 2.5})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	high, err := m.PredictProba(features.Lexical{Length: 24, Entropy: 4.2})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if low >= 0.5 {
		t.Errorf("short low-entropy domain scored %f, want < 0.5", low)
	}
	if high < 0.5 {
		t.Errorf("long high-entropy domain scored %f, want >= 0.5", high)
	}
}

func TestNgramModel_ShapeMismatch(t *testing.T) {
	m := NewNgramModel(4, 1)
	X := []features.SparseVector{{0: 0.5, 1: 0.5}, {2: 1.0}}
	if err := m.Fit(X, []int{0, 1}); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	// An index beyond the fitted vocabulary means the vectorizer and
	// model come from different fits.
	if _, err := m.PredictProba(features.SparseVector{7: 0.5}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("out-of-range index: got %v, want ErrShapeMismatch", err)
	}

	bad := NewNgramModel(2, 1)
	if err := bad.Fit([]features.SparseVector{{5: 1.0}}, []int{1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("fit with out-of-range index: got %v, want ErrShapeMismatch", err)
	}
}

func TestNgramModel_NotFitted(t *testing.T) {
	m := NewNgramModel(4, 1)
	if _, err := m.PredictProba(features.SparseVector{0: 1.0}); !errors.Is(err, features.ErrNotFitted) {
		t.Errorf("got %v, want ErrNotFitted", err)
	}
}

func TestSequenceModel_ShapeMismatch(t *testing.T) {
	m := NewSequenceModel(6, 4, 1)
	X := [][]int{{2, 3, 0, 0}, {4, 5, 2, 3}}
	if err := m.Fit(X, []int{0, 1}); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if _, err := m.PredictProba([]int{2, 3}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("wrong length: got %v, want ErrShapeMismatch", err)
	}
	if _, err := m.PredictProba([]int{2, 3, 9, 0}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("index beyond vocab: got %v, want ErrShapeMismatch", err)
	}
}

func TestSequenceModel_PadEmbeddingStaysZero(t *testing.T) {
	m := NewSequenceModel(6, 4, 1)
	X := [][]int{{2, 3, 0, 0}, {4, 5, 2, 3}, {3, 2, 0, 0}, {5, 4, 3, 2}}
	if err := m.Fit(X, []int{0, 1, 0, 1}); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	for j, v := range m.Embed[features.PadIndex] {
		if v != 0 {
			t.Fatalf("pad embedding dimension %d = %f, want 0", j, v)
		}
	}

	// The pooled representation stops at the first pad, so the padded
	// tail cannot change the score.
	a, err := m.PredictProba([]int{2, 3, 0, 0})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	b, err := m.PredictProba([]int{2, 3, 0, 5})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if a != b {
		t.Errorf("content after padding changed the score: %f vs %f", a, b)
	}
}

func TestSequenceModel_AllPadding(t *testing.T) {
	m := NewSequenceModel(6, 4, 1)
	if err := m.Fit([][]int{{2, 3, 0, 0}, {4, 5, 2, 3}}, []int{0, 1}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := m.PredictProba([]int{0, 0, 0, 0}); !errors.Is(err, features.ErrEmptyDomain) {
		t.Errorf("all-padding sequence: got %v, want ErrEmptyDomain", err)
	}
}
