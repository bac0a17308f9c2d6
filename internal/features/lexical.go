// Package features derives the three representations the classifier
// ensemble consumes from a raw domain name: hand-crafted lexical
// descriptors, a TF-IDF weighted character n-gram vector, and a
// fixed-length integer character sequence.
//
// All fitted state (n-gram vocabulary, IDF weights, character vocabulary,
// maximum sequence length) is built exactly once from a training corpus
// and frozen afterwards; Transform calls never mutate it.
package features

import (
	"errors"
	"math"
)

var (
	// ErrEmptyDomain is returned when a domain string is empty or reduces
	// to nothing after normalization.
	ErrEmptyDomain = errors.New("features: empty domain")

	// ErrNotFitted is returned when Transform is invoked before Fit.
	ErrNotFitted = errors.New("features: not fitted")

	// ErrDomainTooLong is returned by the sequence encoder when the input
	// exceeds the fitted maximum length and the policy rejects overlong
	// domains instead of truncating them.
	ErrDomainTooLong = errors.New("features: domain exceeds fitted max length")
)

// Lexical holds the hand-crafted descriptors of a domain string.
type Lexical struct {
	Length  int
	Entropy float64
}

// ExtractLexical computes the lexical descriptors for a domain.
// The domain must be non-empty; callers are expected to have normalized
// it already (the pipeline lowercases and trims before fan-out).
func ExtractLexical(domain string) (Lexical, error) {
	if len(domain) == 0 {
		return Lexical{}, ErrEmptyDomain
	}
	return Lexical{
		Length:  len(domain),
		Entropy: Entropy(domain),
	}, nil
}

// Entropy returns the Shannon entropy (base 2) of the byte frequency
// distribution of s. A single repeated character yields 0 for any length.
func Entropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}

	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}

	var entropy float64
	total := float64(len(s))

	for _, count := range counts {
		if count > 0 {
			p := float64(count) / total
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// Vector returns the descriptors as a dense feature vector in the order
// used at model fit time: [length, entropy].
func (l Lexical) Vector() []float64 {
	return []float64{float64(l.Length), l.Entropy}
}
