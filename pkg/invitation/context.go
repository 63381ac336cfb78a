// Package invitation selects in-domain sentence pairs from a mixed-domain parallel corpus
// with the invitation model: an EM procedure over in-domain and out-of-domain IBM-1
// translation tables combined with sentence-level language model scores.
package invitation

import (
	"context"
	"fmt"
	"sort"

	"github.com/golang/glog"

	"github.com/amirkamran/InvitationModel/pkg/arith"
	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/dispatch"
	"github.com/amirkamran/InvitationModel/pkg/lm"
	"github.com/amirkamran/InvitationModel/pkg/ttable"
)

// Table slots of a TrainingContext. Each table gives P(target | source) for one
// direction of one domain.
const (
	InTrgGivenSrc = iota
	InSrcGivenTrg
	OutTrgGivenSrc
	OutSrcGivenTrg
	numTables
)

var tableNames = [numTables]string{"in src->trg", "in trg->src", "out src->trg", "out trg->src"}

// Priors are the domain priors in the representation of the active arithmetic.
type Priors struct {
	In  float64
	Out float64
}

// Posteriors is the per-sentence arena written by one scoring pass. Both slices are
// indexed by mixed sentence and hold values in the active arithmetic.
type Posteriors struct {
	In  []float64
	Out []float64
}

func newPosteriors(n int) Posteriors {
	return Posteriors{In: make([]float64, n), Out: make([]float64, n)}
}

// slice returns the part of the arena owned by r.
func (p Posteriors) slice(r dispatch.Range) Posteriors {
	return Posteriors{In: p.In[r.Start:r.End], Out: p.Out[r.Start:r.End]}
}

// IgnoreSet holds mixed sentence indices excluded for the rest of a run. It only grows.
// It is not safe for concurrent writes; scoring tasks read it while the joining
// goroutine is the only writer.
type IgnoreSet struct {
	m map[int]struct{}
}

// NewIgnoreSet returns an empty set.
func NewIgnoreSet() *IgnoreSet {
	return &IgnoreSet{m: make(map[int]struct{})}
}

// Add inserts sentence and reports whether it was new.
func (s *IgnoreSet) Add(sentence int) bool {
	if _, ok := s.m[sentence]; ok {
		return false
	}
	s.m[sentence] = struct{}{}
	return true
}

// Contains reports whether sentence is excluded.
func (s *IgnoreSet) Contains(sentence int) bool {
	_, ok := s.m[sentence]
	return ok
}

// Len returns the number of excluded sentences.
func (s *IgnoreSet) Len() int { return len(s.m) }

// Sorted returns the excluded sentences in ascending order.
func (s *IgnoreSet) Sorted() []int {
	out := make([]int, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// TrainingContext is the state shared by the tasks of one run. Tasks get read-only
// access to the tables, corpora, priors and LM scores plus their own slice of the
// posterior arena; only the trainer goroutine mutates the context between phases.
type TrainingContext struct {
	Arith  arith.Arithmetic
	Mixed  corpus.Parallel
	Tables [numTables]*ttable.Table
	Priors Priors
	Ignore *IgnoreSet
	// LM holds natural-log scores over Mixed; nil until language models exist.
	LM *lm.Scores

	// Floor is the weight of a pair absent from a table, in the active arithmetic.
	Floor       float64
	PseudoCount float64
	Vocabulary  int
}

// NewTrainingContext returns a context with even priors and an empty ignore set.
func NewTrainingContext(a arith.Arithmetic, mixed corpus.Parallel, pseudoCount float64, vocabulary int) *TrainingContext {
	tc := &TrainingContext{
		Arith:       a,
		Mixed:       mixed,
		Ignore:      NewIgnoreSet(),
		PseudoCount: pseudoCount,
		Vocabulary:  vocabulary,
		Floor:       a.FromProb(1 / (pseudoCount * float64(vocabulary))),
	}
	tc.ResetPriors()
	return tc
}

// ResetPriors sets both domain priors to one half.
func (tc *TrainingContext) ResetPriors() {
	half := tc.Arith.FromProb(0.5)
	tc.Priors = Priors{In: half, Out: half}
}

// InitTable builds P(target | source) from raw co-occurrence counts of c with additive
// smoothing: (count + n) / (total[source] + n*v). Every target position except NULL is
// paired with every source position including NULL.
func InitTable(a arith.Arithmetic, c corpus.Parallel, n float64, v int) *ttable.Table {
	counts := ttable.New()
	totals := make(map[corpus.Token]float64)
	for sent := range c.Source {
		if sent%100000 == 0 && sent > 0 {
			glog.V(1).Infof("counted %d sentences", sent)
		}
		src, trg := c.Source[sent], c.Target[sent]
		for t := 1; t < len(trg); t++ {
			for _, sw := range src {
				counts.Add(trg[t], sw, 1)
				totals[sw]++
			}
		}
	}
	return counts.MapPairs(func(_, sw corpus.Token, count float64) float64 {
		return a.Smooth(count, totals[sw], n, float64(v))
	})
}

// InitTables rebuilds all four tables concurrently: the in-domain pair from in and the
// out-of-domain pair from out.
func (tc *TrainingContext) InitTables(ctx context.Context, pool dispatch.Submitter, in, out corpus.Parallel) error {
	sources := [numTables]corpus.Parallel{in, in.Reverse(), out, out.Reverse()}
	var fresh [numTables]*ttable.Table
	jobs := make([]dispatch.Job, 0, numTables)
	for i := range sources {
		i := i
		jobs = append(jobs, func(ctx context.Context) error {
			fresh[i] = InitTable(tc.Arith, sources[i], tc.PseudoCount, tc.Vocabulary)
			glog.V(1).Infof("initialized %s table with %d pairs", tableNames[i], fresh[i].Len())
			return nil
		})
	}
	if err := dispatch.RunPhase(ctx, pool, jobs); err != nil {
		return fmt.Errorf("initialize tables: %w", err)
	}
	tc.Tables = fresh
	return nil
}
