// Package corpus holds integer-coded bilingual corpora and the encoder that builds them
// from tokenized text.
package corpus

import (
	"errors"
	"fmt"
)

// Token is the integer code of a word. Codes are assigned per language.
type Token int32

// Null is the code of the synthetic NULL word every sentence starts with.
const Null Token = 0

// Sentence is a sequence of codes whose first element is always Null.
type Sentence []Token

// Words returns the real words of s, i.e. everything after the NULL position.
func (s Sentence) Words() []Token {
	if len(s) == 0 {
		return nil
	}
	return s[1:]
}

// Corpus is an ordered list of sentences.
type Corpus []Sentence

// TokenCount returns the number of positions in c, NULL positions included.
func (c Corpus) TokenCount() int {
	n := 0
	for _, s := range c {
		n += len(s)
	}
	return n
}

// ErrLengthMismatch is returned when the two sides of a parallel corpus differ in size.
var ErrLengthMismatch = errors.New("corpus: source and target differ in length")

// Parallel is an index-aligned pair of corpora.
type Parallel struct {
	Source Corpus
	Target Corpus
}

// NewParallel pairs src and trg.
func NewParallel(src, trg Corpus) (Parallel, error) {
	if len(src) != len(trg) {
		return Parallel{}, fmt.Errorf("%w: %d vs %d sentences", ErrLengthMismatch, len(src), len(trg))
	}
	return Parallel{Source: src, Target: trg}, nil
}

// Len returns the number of sentence pairs.
func (p Parallel) Len() int { return len(p.Source) }

// Reverse swaps the roles of source and target.
func (p Parallel) Reverse() Parallel {
	return Parallel{Source: p.Target, Target: p.Source}
}

// Subset returns the pairs at the given indices, in that order. The sentences are shared,
// not copied.
func (p Parallel) Subset(indices []int) Parallel {
	out := Parallel{
		Source: make(Corpus, len(indices)),
		Target: make(Corpus, len(indices)),
	}
	for j, i := range indices {
		out.Source[j] = p.Source[i]
		out.Target[j] = p.Target[i]
	}
	return out
}
