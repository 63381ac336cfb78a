package invitation

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/dispatch"
)

// BurnIn derives the initial out-of-domain corpus. With tables built from the in-domain
// and the mixed corpus, it scores every mixed sentence without language models, ranks
// the usable ones by descending P(out | s) and accepts the shortest prefix whose source
// token count, NULL positions included, reaches inTokens.
func (tc *TrainingContext) BurnIn(ctx context.Context, pool dispatch.Submitter, splits, inTokens int) (OutDomain, error) {
	post, ignored, err := tc.Score(ctx, pool, splits, false)
	if err != nil {
		return OutDomain{}, fmt.Errorf("burn-in: %w", err)
	}
	od := tc.selectOutDomain(post, inTokens)
	od.Ignored = ignored
	return od, nil
}

func (tc *TrainingContext) selectOutDomain(post Posteriors, inTokens int) OutDomain {
	a := tc.Arith
	ranking := make([]Result, 0, tc.Mixed.Len()-tc.Ignore.Len())
	for sent := range post.Out {
		if tc.Ignore.Contains(sent) {
			continue
		}
		ranking = append(ranking, Result{Sentence: sent, Score: a.ToProb(post.Out[sent])})
	}
	SortResults(ranking)

	n := acceptPrefix(ranking, tc.Mixed.Source, inTokens)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = ranking[i].Sentence
	}
	glog.Infof("burn-in selected %d of %d sentences (%d in-domain tokens)", n, len(ranking), inTokens)
	return OutDomain{
		Ranking:  ranking,
		Selected: tc.Mixed.Subset(indices),
		Indices:  indices,
	}
}

// acceptPrefix returns the length of the shortest prefix of ranking whose source token
// count is at least target, or len(ranking) when no prefix is long enough.
func acceptPrefix(ranking []Result, src corpus.Corpus, target int) int {
	if target <= 0 {
		return 0
	}
	count := 0
	for i, r := range ranking {
		count += len(src[r.Sentence])
		if count >= target {
			return i + 1
		}
	}
	return len(ranking)
}
