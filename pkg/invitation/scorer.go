package invitation

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/amirkamran/InvitationModel/pkg/arith"
	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/dispatch"
	"github.com/amirkamran/InvitationModel/pkg/ttable"
)

// SentenceLikelihood returns the IBM-1 likelihood of trg given src under table: the
// product over target positions (NULL excluded) of the summed weights against every
// source position (NULL included). Absent pairs weigh floor.
func SentenceLikelihood(a arith.Arithmetic, src, trg corpus.Sentence, table *ttable.Table, floor float64) float64 {
	return sentenceLikelihood(a, src, trg, table, floor, make([]float64, len(src)))
}

func sentenceLikelihood(a arith.Arithmetic, src, trg corpus.Sentence, table *ttable.Table, floor float64, buf []float64) float64 {
	buf = buf[:len(src)]
	prob := a.One()
	for t := 1; t < len(trg); t++ {
		for s, sw := range src {
			buf[s] = table.GetOr(trg[t], sw, floor)
		}
		prob = a.Mul(prob, a.Sum(buf))
	}
	return prob
}

// degenerate reports whether a posterior cannot be used. Log posteriors of -Inf are
// valid zero probabilities.
func degenerate(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 1)
}

// scoreRange writes posteriors for the mixed sentences of r into post, which is the
// arena slice owned by r. Ignored sentences are left untouched; degenerate ones are
// marked NaN for the joining goroutine.
func (tc *TrainingContext) scoreRange(r dispatch.Range, post Posteriors, withLM bool) {
	a := tc.Arith
	var buf []float64
	for k := 0; k < r.Len(); k++ {
		sent := r.Start + k
		if tc.Ignore.Contains(sent) {
			continue
		}
		src, trg := tc.Mixed.Source[sent], tc.Mixed.Target[sent]
		if n := max(len(src), len(trg)); cap(buf) < n {
			buf = make([]float64, n)
		}

		inTS := sentenceLikelihood(a, src, trg, tc.Tables[InTrgGivenSrc], tc.Floor, buf)
		inST := sentenceLikelihood(a, trg, src, tc.Tables[InSrcGivenTrg], tc.Floor, buf)
		outTS := sentenceLikelihood(a, src, trg, tc.Tables[OutTrgGivenSrc], tc.Floor, buf)
		outST := sentenceLikelihood(a, trg, src, tc.Tables[OutSrcGivenTrg], tc.Floor, buf)

		if withLM {
			inTS = a.Mul(inTS, a.FromLogProb(tc.LM.InTrg[sent]))
			inST = a.Mul(inST, a.FromLogProb(tc.LM.InSrc[sent]))
			outTS = a.Mul(outTS, a.FromLogProb(tc.LM.OutTrg[sent]))
			outST = a.Mul(outST, a.FromLogProb(tc.LM.OutSrc[sent]))
		}

		in := a.Mul(tc.Priors.In, a.Add(inTS, inST))
		mix := a.Mul(tc.Priors.Out, a.Add(outTS, outST))
		total := a.Add(in, mix)
		pIn, pOut := a.Div(in, total), a.Div(mix, total)
		if degenerate(in) || degenerate(mix) || degenerate(pIn) || degenerate(pOut) {
			pIn, pOut = math.NaN(), math.NaN()
		}
		post.In[k], post.Out[k] = pIn, pOut
	}
}

// Score runs one scoring pass over the mixed corpus split into the given number of
// ranges, then moves degenerate sentences into the ignore set. It returns the arena and
// the sentences newly ignored. Burn-in passes (withLM false) omit language model
// factors.
func (tc *TrainingContext) Score(ctx context.Context, pool dispatch.Submitter, splits int, withLM bool) (Posteriors, []int, error) {
	if withLM {
		if tc.LM == nil {
			return Posteriors{}, nil, fmt.Errorf("score: language model scores missing")
		}
		if err := tc.LM.Validate(tc.Mixed.Len()); err != nil {
			return Posteriors{}, nil, fmt.Errorf("score: %w", err)
		}
	}

	post := newPosteriors(tc.Mixed.Len())
	ranges := dispatch.Ranges(tc.Mixed.Len(), splits)
	jobs := make([]dispatch.Job, 0, len(ranges))
	for _, r := range ranges {
		r := r
		part := post.slice(r)
		jobs = append(jobs, func(ctx context.Context) error {
			tc.scoreRange(r, part, withLM)
			return nil
		})
	}
	if err := dispatch.RunPhase(ctx, pool, jobs); err != nil {
		return Posteriors{}, nil, fmt.Errorf("score: %w", err)
	}

	return post, tc.join(post), nil
}

// join moves sentences whose posterior came out NaN into the ignore set.
func (tc *TrainingContext) join(post Posteriors) []int {
	var ignored []int
	for sent := range post.In {
		if tc.Ignore.Contains(sent) {
			continue
		}
		if math.IsNaN(post.In[sent]) || math.IsNaN(post.Out[sent]) {
			tc.Ignore.Add(sent)
			ignored = append(ignored, sent)
			glog.Infof("ignoring sentence %d", sent+1)
		}
	}
	return ignored
}

// estimatePriors sums the posteriors of every usable sentence and normalizes the sums.
func (tc *TrainingContext) estimatePriors(post Posteriors) Priors {
	a := tc.Arith
	var ins, outs []float64
	for sent := range post.In {
		if tc.Ignore.Contains(sent) {
			continue
		}
		ins = append(ins, post.In[sent])
		outs = append(outs, post.Out[sent])
	}
	countIn, countOut := a.Sum(ins), a.Sum(outs)
	total := a.Add(countIn, countOut)
	return Priors{In: a.Div(countIn, total), Out: a.Div(countOut, total)}
}
