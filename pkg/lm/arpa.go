package lm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang/glog"
	"github.com/kho/fslm"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/dispatch"
)

// DefaultOOVLog10 is the base-10 weight charged for a word the model cannot score.
const DefaultOOVLog10 = -7.0

// ARPAModel scores encoded sentences with an n-gram model read from an ARPA file. Words
// are the decimal token codes. It is safe for concurrent use.
type ARPAModel struct {
	model    *fslm.Model
	oovLog10 float64
}

// LoadARPA reads the model at path. oovLog10 replaces log(0) transitions.
func LoadARPA(path string, oovLog10 float64) (*ARPAModel, error) {
	model, err := fslm.FromARPAFile(path, 0)
	if err != nil {
		return nil, fmt.Errorf("lm: load %s: %w", path, err)
	}
	states, transitions, words := model.Size()
	glog.Infof("loaded LM %s with %d states, %d transitions and %d words", path, states, transitions, words)
	return &ARPAModel{model: model, oovLog10: oovLog10}, nil
}

// LogProb returns the natural-log probability of s followed by the end of sentence.
func (m *ARPAModel) LogProb(s corpus.Sentence) float64 {
	var total float64
	p := m.model.Start()
	for _, tok := range s.Words() {
		var w fslm.Weight
		p, w = m.model.NextS(p, strconv.Itoa(int(tok)))
		if w == fslm.WEIGHT_LOG0 {
			total += m.oovLog10
			continue
		}
		total += float64(w)
	}
	total += float64(m.model.Final(p))
	return Log10ToLn(total)
}

// ScoreCorpus scores every sentence of c with s, split into the given number of ranges
// run on pool.
func ScoreCorpus(ctx context.Context, pool dispatch.Submitter, s Scorer, c corpus.Corpus, splits int) ([]float64, error) {
	out := make([]float64, len(c))
	var jobs []dispatch.Job
	for _, r := range dispatch.Ranges(len(c), splits) {
		r := r
		jobs = append(jobs, func(ctx context.Context) error {
			for i := r.Start; i < r.End; i++ {
				out[i] = s.LogProb(c[i])
			}
			glog.V(1).Infof("scored sentences %d-%d", r.Start, r.End)
			return nil
		})
	}
	if err := dispatch.RunPhase(ctx, pool, jobs); err != nil {
		return nil, fmt.Errorf("lm: score corpus: %w", err)
	}
	return out, nil
}
