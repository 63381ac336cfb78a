// Package lm supplies sentence-level language model scores for the mixed corpus. Models
// are n-gram models over integer token codes; every score is a natural-log probability.
package lm

import (
	"context"
	"fmt"
	"math"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
)

// Scorer returns the natural-log probability of a sentence. The NULL position is not
// scored.
type Scorer interface {
	LogProb(s corpus.Sentence) float64
}

// Estimator trains an ARPA model from a file of encoded sentences.
type Estimator interface {
	Estimate(ctx context.Context, textPath, arpaPath string) error
}

// Request names the corpora the four models are trained on and the corpus they score.
type Request struct {
	In    corpus.Parallel
	Out   corpus.Parallel
	Mixed corpus.Parallel
}

// Scores holds one natural-log probability per mixed sentence for each model.
type Scores struct {
	InSrc  []float64
	InTrg  []float64
	OutSrc []float64
	OutTrg []float64
}

// Validate checks that every vector covers n sentences.
func (s Scores) Validate(n int) error {
	for _, v := range []struct {
		name string
		xs   []float64
	}{{"in-domain source", s.InSrc}, {"in-domain target", s.InTrg}, {"out-of-domain source", s.OutSrc}, {"out-of-domain target", s.OutTrg}} {
		if len(v.xs) != n {
			return fmt.Errorf("lm: %s scores cover %d sentences, want %d", v.name, len(v.xs), n)
		}
	}
	return nil
}

// Provider produces the four score vectors the trainer combines with translation
// likelihoods.
type Provider interface {
	Models(ctx context.Context, req Request) (Scores, error)
}

// Log10ToLn converts a base-10 log probability to natural log.
func Log10ToLn(w float64) float64 { return w * math.Ln10 }
