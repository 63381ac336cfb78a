package invitation

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/amirkamran/InvitationModel/pkg/arith"
	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/dispatch"
	"github.com/amirkamran/InvitationModel/pkg/ttable"
)

// Weighted is a corpus whose sentences contribute expected counts with per-sentence
// weights in the active arithmetic.
type Weighted struct {
	Corpus corpus.Parallel
	// Weights has one entry per sentence; nil weighs every sentence One.
	Weights []float64
	// Skip excludes sentences; nil keeps all.
	Skip func(sentence int) bool
}

func (w Weighted) weight(a arith.Arithmetic, sent int) float64 {
	if w.Weights == nil {
		return a.One()
	}
	return w.Weights[sent]
}

// Maximize re-estimates table from expected counts. For every kept sentence whose weight
// is at least threshold, each (target, source) pair contributes
// weight * table(t, s) / sum over the sentence's sources of table(t, s'). The returned
// table holds count(t, s) / total(s) for every observed pair; table itself is only read.
func Maximize(a arith.Arithmetic, table *ttable.Table, floor, threshold float64, data ...Weighted) *ttable.Table {
	counts := ttable.New()
	totals := make(map[corpus.Token]float64)
	accumulate := func(tw, sw corpus.Token, x float64) {
		counts.Put(tw, sw, a.Add(counts.GetOr(tw, sw, a.Zero()), x))
		if cur, ok := totals[sw]; ok {
			totals[sw] = a.Add(cur, x)
		} else {
			totals[sw] = x
		}
	}

	var norm []float64
	for _, d := range data {
		for sent := range d.Corpus.Source {
			if d.Skip != nil && d.Skip(sent) {
				continue
			}
			w := d.weight(a, sent)
			if w < threshold {
				continue
			}
			src, trg := d.Corpus.Source[sent], d.Corpus.Target[sent]
			if cap(norm) < len(src) {
				norm = make([]float64, len(src))
			}
			for t := 1; t < len(trg); t++ {
				tw := trg[t]
				rowNorm := sentenceRow(a, table, tw, src, floor, norm)
				for _, sw := range src {
					p := table.GetOr(tw, sw, floor)
					accumulate(tw, sw, a.Mul(w, a.Div(p, rowNorm)))
				}
			}
		}
	}

	return counts.MapPairs(func(_, sw corpus.Token, count float64) float64 {
		return a.Div(count, totals[sw])
	})
}

// sentenceRow sums table(tw, s) over the source positions of src.
func sentenceRow(a arith.Arithmetic, table *ttable.Table, tw corpus.Token, src corpus.Sentence, floor float64, buf []float64) float64 {
	buf = buf[:len(src)]
	for s, sw := range src {
		buf[s] = table.GetOr(tw, sw, floor)
	}
	return a.Sum(buf)
}

// Maximize runs one M-step on all four tables concurrently. The in-domain tables learn
// from the mixed corpus weighted by P(in | s) plus the in-domain corpus at weight one;
// the out-of-domain tables from the mixed corpus weighted by P(out | s). Ignored mixed
// sentences and those below threshold (a probability) contribute nothing. Each table is
// replaced by a freshly estimated one.
func (tc *TrainingContext) Maximize(ctx context.Context, pool dispatch.Submitter, post Posteriors, in corpus.Parallel, threshold float64) error {
	a := tc.Arith
	thr := a.FromProb(threshold)
	skip := tc.Ignore.Contains
	mixed := tc.Mixed

	inputs := [numTables][]Weighted{
		InTrgGivenSrc:  {{Corpus: mixed, Weights: post.In, Skip: skip}, {Corpus: in}},
		InSrcGivenTrg:  {{Corpus: mixed.Reverse(), Weights: post.In, Skip: skip}, {Corpus: in.Reverse()}},
		OutTrgGivenSrc: {{Corpus: mixed, Weights: post.Out, Skip: skip}},
		OutSrcGivenTrg: {{Corpus: mixed.Reverse(), Weights: post.Out, Skip: skip}},
	}

	var fresh [numTables]*ttable.Table
	jobs := make([]dispatch.Job, 0, numTables)
	for i := range inputs {
		i := i
		jobs = append(jobs, func(ctx context.Context) error {
			fresh[i] = Maximize(a, tc.Tables[i], tc.Floor, thr, inputs[i]...)
			glog.V(1).Infof("re-estimated %s table: %d pairs", tableNames[i], fresh[i].Len())
			return nil
		})
	}
	if err := dispatch.RunPhase(ctx, pool, jobs); err != nil {
		return fmt.Errorf("maximize: %w", err)
	}
	tc.Tables = fresh
	return nil
}
