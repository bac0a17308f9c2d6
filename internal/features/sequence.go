package features

import "strings"

// Reserved indices in the character vocabulary. Padding and unknown are
// kept distinct so the sequence model can tell an out-of-vocabulary
// character from the padded tail of a short domain.
const (
	PadIndex     = 0
	UnknownIndex = 1
	firstCharIdx = 2
)

// TruncatePolicy decides what happens to a domain longer than the
// fitted maximum length.
type TruncatePolicy int

const (
	// Truncate keeps the leading MaxLen characters.
	Truncate TruncatePolicy = iota
	// Reject fails the transform with ErrDomainTooLong.
	Reject
)

// SequenceEncoder maps a domain to a fixed-length integer sequence over a
// character vocabulary learned at fit time. Sequences are right-padded
// with PadIndex to the maximum domain length seen in the corpus.
type SequenceEncoder struct {
	vocab  map[rune]int
	maxLen int
	policy TruncatePolicy
	fitted bool
}

// NewSequenceEncoder returns an unfitted encoder with the given overlong
// domain policy.
func NewSequenceEncoder(policy TruncatePolicy) *SequenceEncoder {
	return &SequenceEncoder{policy: policy}
}

// Fit scans the corpus, assigning each distinct character an index in
// order of first appearance, and records the maximum domain length.
func (e *SequenceEncoder) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return ErrEmptyDomain
	}

	e.vocab = make(map[rune]int)
	next := firstCharIdx
	e.maxLen = 0

	for _, doc := range corpus {
		n := 0
		for _, r := range doc {
			n++
			if _, ok := e.vocab[r]; !ok {
				e.vocab[r] = next
				next++
			}
		}
		if n > e.maxLen {
			e.maxLen = n
		}
	}

	e.fitted = true
	return nil
}

// Transform encodes a domain under the fitted vocabulary. Characters not
// seen at fit time map to UnknownIndex; the result always has length
// MaxLen. Overlong input is truncated or rejected per the policy.
func (e *SequenceEncoder) Transform(domain string) ([]int, error) {
	if !e.fitted {
		return nil, ErrNotFitted
	}
	if len(domain) == 0 {
		return nil, ErrEmptyDomain
	}

	runes := []rune(domain)
	if len(runes) > e.maxLen {
		if e.policy == Reject {
			return nil, ErrDomainTooLong
		}
		runes = runes[:e.maxLen]
	}

	seq := make([]int, e.maxLen)
	for i, r := range runes {
		if idx, ok := e.vocab[r]; ok {
			seq[i] = idx
		} else {
			seq[i] = UnknownIndex
		}
	}
	return seq, nil
}

// Decode maps the non-padding prefix of a sequence back to characters.
// Unknown indices decode to '?'. Used for round-trip checks and debug
// logging, not on the inference path.
func (e *SequenceEncoder) Decode(seq []int) string {
	inverse := make(map[int]rune, len(e.vocab))
	for r, idx := range e.vocab {
		inverse[idx] = r
	}

	var b strings.Builder
	for _, idx := range seq {
		if idx == PadIndex {
			break
		}
		if r, ok := inverse[idx]; ok {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// MaxLen returns the fitted sequence length.
func (e *SequenceEncoder) MaxLen() int {
	return e.maxLen
}

// VocabSize returns the number of assigned indices including the two
// reserved ones.
func (e *SequenceEncoder) VocabSize() int {
	return len(e.vocab) + firstCharIdx
}

// Fitted reports whether Fit has completed.
func (e *SequenceEncoder) Fitted() bool {
	return e.fitted
}

// Policy returns the configured overlong-domain policy.
func (e *SequenceEncoder) Policy() TruncatePolicy {
	return e.policy
}

// Snapshot exports the fitted state for persistence. The rune keys are
// stringified so the snapshot survives a JSON round trip.
func (e *SequenceEncoder) Snapshot() (vocab map[string]int, maxLen int) {
	vocab = make(map[string]int, len(e.vocab))
	for r, idx := range e.vocab {
		vocab[string(r)] = idx
	}
	return vocab, e.maxLen
}

// RestoreSequenceEncoder rebuilds an encoder from persisted state.
func RestoreSequenceEncoder(vocab map[string]int, maxLen int, policy TruncatePolicy) *SequenceEncoder {
	e := &SequenceEncoder{
		vocab:  make(map[rune]int, len(vocab)),
		maxLen: maxLen,
		policy: policy,
		fitted: len(vocab) > 0 && maxLen > 0,
	}
	for s, idx := range vocab {
		for _, r := range s {
			e.vocab[r] = idx
			break
		}
	}
	return e
}
