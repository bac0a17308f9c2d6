package features

import (
	"math"
	"sort"
)

const (
	ngramMin = 2
	ngramMax = 4
)

// SparseVector is a TF-IDF weighted vector indexed by vocabulary position.
// Absent indices carry weight zero.
type SparseVector map[int]float64

// NgramVectorizer maps a domain to an L2-normalized TF-IDF vector over
// character n-grams of length 2-4. The vocabulary and IDF weights are
// fitted once and frozen; unseen n-grams at transform time are dropped.
type NgramVectorizer struct {
	vocab  map[string]int
	idf    []float64
	fitted bool
}

// NewNgramVectorizer returns an unfitted vectorizer.
func NewNgramVectorizer() *NgramVectorizer {
	return &NgramVectorizer{}
}

// ngrams emits every contiguous substring of s with length 2-4.
func ngrams(s string, emit func(string)) {
	for n := ngramMin; n <= ngramMax; n++ {
		for i := 0; i+n <= len(s); i++ {
			emit(s[i : i+n])
		}
	}
}

// Fit builds the vocabulary and IDF weights from the training corpus.
// Vocabulary order is lexicographic so repeated fits over the same corpus
// produce identical indices regardless of map iteration order.
func (v *NgramVectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return ErrEmptyDomain
	}

	docFreq := make(map[string]int)
	seen := make(map[string]struct{})

	for _, doc := range corpus {
		clear(seen)
		ngrams(doc, func(g string) {
			if _, ok := seen[g]; !ok {
				seen[g] = struct{}{}
				docFreq[g]++
			}
		})
	}

	terms := make([]string, 0, len(docFreq))
	for g := range docFreq {
		terms = append(terms, g)
	}
	sort.Strings(terms)

	v.vocab = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))

	for i, g := range terms {
		v.vocab[g] = i
		// Smoothed IDF, same form sklearn uses: log((1+n)/(1+df))+1.
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[g]))) + 1
	}

	v.fitted = true
	return nil
}

// Transform maps a domain to its TF-IDF vector under the fitted
// vocabulary. Unknown n-grams contribute nothing; the result is
// L2-normalized unless every n-gram was unknown.
func (v *NgramVectorizer) Transform(domain string) (SparseVector, error) {
	if !v.fitted {
		return nil, ErrNotFitted
	}
	if len(domain) == 0 {
		return nil, ErrEmptyDomain
	}

	vec := make(SparseVector)
	ngrams(domain, func(g string) {
		if idx, ok := v.vocab[g]; ok {
			vec[idx] += v.idf[idx]
		}
	})

	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i, w := range vec {
			vec[i] = w / norm
		}
	}
	return vec, nil
}

// Dim returns the fitted vocabulary size.
func (v *NgramVectorizer) Dim() int {
	return len(v.vocab)
}

// Fitted reports whether Fit has completed.
func (v *NgramVectorizer) Fitted() bool {
	return v.fitted
}

// Snapshot exports the fitted state for persistence.
func (v *NgramVectorizer) Snapshot() (vocab map[string]int, idf []float64) {
	return v.vocab, v.idf
}

// RestoreNgramVectorizer rebuilds a vectorizer from persisted state.
func RestoreNgramVectorizer(vocab map[string]int, idf []float64) *NgramVectorizer {
	return &NgramVectorizer{vocab: vocab, idf: idf, fitted: len(vocab) > 0}
}
