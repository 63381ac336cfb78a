package invitation

import (
	"context"
	"sort"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
)

// Result is one ranked mixed sentence. Sentence is the 0-based index into the mixed
// corpus, Score a probability and LMScore a natural-log probability.
type Result struct {
	Sentence int
	Score    float64
	LMScore  float64
}

// SortResults orders rs by descending Score, then descending LMScore, then ascending
// sentence index.
func SortResults(rs []Result) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.LMScore != b.LMScore {
			return a.LMScore > b.LMScore
		}
		return a.Sentence < b.Sentence
	})
}

// OutDomain is the outcome of burn-in.
type OutDomain struct {
	// Ranking holds every scored mixed sentence with Score = P(out | s), most
	// out-of-domain first.
	Ranking []Result
	// Selected is the accepted prefix of Ranking as a parallel corpus.
	Selected corpus.Parallel
	// Indices are the mixed indices of Selected, in ranking order.
	Indices []int
	// Ignored lists the sentences excluded during burn-in.
	Ignored []int
}

// Iteration is the outcome of one E-step.
type Iteration struct {
	Number  int
	PriorIn float64
	// Results hold Score = P(in | s) and LMScore = in-domain source + target LM score,
	// sorted with SortResults.
	Results []Result
	// Ignored lists the sentences excluded during this iteration.
	Ignored []int
}

// Summary describes a finished run.
type Summary struct {
	RunID         string
	Iterations    int
	Converged     bool
	PriorIn       float64
	Ignored       int
	OutDomainSize int
}

// Sink persists what a run produces. Calls happen on the trainer goroutine in order:
// OutDomain once, Iteration per E-step, Done at the end of a successful run.
type Sink interface {
	OutDomain(ctx context.Context, od OutDomain) error
	Iteration(ctx context.Context, it Iteration) error
	Done(ctx context.Context, s Summary) error
}
