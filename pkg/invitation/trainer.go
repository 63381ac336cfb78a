package invitation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/amirkamran/InvitationModel/pkg/arith"
	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/dispatch"
	"github.com/amirkamran/InvitationModel/pkg/lm"
)

// Defaults for Options fields left zero.
const (
	DefaultMaxIterations = 10
	DefaultPseudoCount   = 0.3
	DefaultVocabulary    = 100000
	DefaultSplits        = 50
)

// Options configure a Trainer.
type Options struct {
	RunID      string
	Arithmetic arith.Arithmetic
	// MaxIterations bounds the number of E-steps.
	MaxIterations int
	// ConfidenceThreshold is the smallest posterior probability with which a mixed
	// sentence takes part in an M-step; 0 includes every sentence.
	ConfidenceThreshold float64
	// ConvergenceThreshold stops training once P(in) moves by at most this much between
	// iterations; 0 disables the check.
	ConvergenceThreshold float64
	PseudoCount          float64
	Vocabulary           int
	// Splits is the number of ranges a scoring pass is cut into.
	Splits int
	// TableDir receives the final translation tables; empty skips saving.
	TableDir string
}

func (o Options) withDefaults() Options {
	if o.Arithmetic == nil {
		o.Arithmetic = arith.Log{}
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.PseudoCount <= 0 {
		o.PseudoCount = DefaultPseudoCount
	}
	if o.Vocabulary <= 0 {
		o.Vocabulary = DefaultVocabulary
	}
	if o.Splits <= 0 {
		o.Splits = DefaultSplits
	}
	return o
}

type state int

const (
	stateInitialize state = iota
	stateBurnIn
	stateCreateLanguageModels
	stateTraining
	stateDone
)

func (s state) String() string {
	switch s {
	case stateInitialize:
		return "initialize"
	case stateBurnIn:
		return "burn-in"
	case stateCreateLanguageModels:
		return "create-language-models"
	case stateTraining:
		return "training"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrEmptyCorpus is returned when the in-domain or mixed corpus has no sentences.
var ErrEmptyCorpus = errors.New("invitation: empty corpus")

// Trainer runs the invitation model over one in-domain and one mixed corpus.
type Trainer struct {
	opts     Options
	pool     dispatch.Submitter
	provider lm.Provider
	sink     Sink

	// estep scores the mixed corpus; replaced in tests.
	estep func(ctx context.Context, tc *TrainingContext, withLM bool) (Posteriors, []int, error)
}

// NewTrainer returns a trainer that schedules its work on pool.
func NewTrainer(opts Options, pool dispatch.Submitter, provider lm.Provider, sink Sink) *Trainer {
	t := &Trainer{
		opts:     opts.withDefaults(),
		pool:     pool,
		provider: provider,
		sink:     sink,
	}
	t.estep = func(ctx context.Context, tc *TrainingContext, withLM bool) (Posteriors, []int, error) {
		return tc.Score(ctx, t.pool, t.opts.Splits, withLM)
	}
	return t
}

func (t *Trainer) enter(s state) {
	glog.Infof("run %s: entering %s", t.opts.RunID, s)
}

// Run executes Initialize, BurnIn, CreateLanguageModels and the training iterations.
// Context cancellation is checked between phases.
func (t *Trainer) Run(ctx context.Context, in, mixed corpus.Parallel) (Summary, error) {
	if in.Len() == 0 || mixed.Len() == 0 {
		return Summary{}, ErrEmptyCorpus
	}
	opts := t.opts
	sum := Summary{RunID: opts.RunID}

	t.enter(stateInitialize)
	tc := NewTrainingContext(opts.Arithmetic, mixed, opts.PseudoCount, opts.Vocabulary)
	if err := tc.InitTables(ctx, t.pool, in, mixed); err != nil {
		return sum, err
	}

	t.enter(stateBurnIn)
	od, err := t.burnIn(ctx, tc, in.Source.TokenCount())
	if err != nil {
		return sum, err
	}
	sum.OutDomainSize = od.Selected.Len()
	if err := t.sink.OutDomain(ctx, od); err != nil {
		return sum, fmt.Errorf("write out-of-domain corpus: %w", err)
	}

	t.enter(stateCreateLanguageModels)
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	scores, err := t.provider.Models(ctx, lm.Request{In: in, Out: od.Selected, Mixed: mixed})
	if err != nil {
		return sum, fmt.Errorf("create language models: %w", err)
	}
	if err := scores.Validate(mixed.Len()); err != nil {
		return sum, err
	}
	tc.LM = &scores

	t.enter(stateTraining)
	if err := tc.InitTables(ctx, t.pool, in, od.Selected); err != nil {
		return sum, err
	}
	tc.ResetPriors()
	if err := t.train(ctx, tc, in, &sum); err != nil {
		return sum, err
	}

	t.enter(stateDone)
	sum.Ignored = tc.Ignore.Len()
	if opts.TableDir != "" {
		if err := tc.SaveTables(opts.TableDir); err != nil {
			return sum, err
		}
	}
	if err := t.sink.Done(ctx, sum); err != nil {
		return sum, fmt.Errorf("finish run: %w", err)
	}
	return sum, nil
}

func (t *Trainer) burnIn(ctx context.Context, tc *TrainingContext, inTokens int) (OutDomain, error) {
	post, ignored, err := t.estep(ctx, tc, false)
	if err != nil {
		return OutDomain{}, fmt.Errorf("burn-in: %w", err)
	}
	od := tc.selectOutDomain(post, inTokens)
	od.Ignored = ignored
	return od, nil
}

// train runs the EM iterations. The convergence check compares the new P(in) with the
// one the iteration was scored with and happens before the M-step.
func (t *Trainer) train(ctx context.Context, tc *TrainingContext, in corpus.Parallel, sum *Summary) error {
	a := tc.Arith
	opts := t.opts
	for i := 1; i <= opts.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		glog.Infof("iteration %d", i)

		post, ignored, err := t.estep(ctx, tc, true)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		priors := tc.estimatePriors(post)
		newIn, oldIn := a.ToProb(priors.In), a.ToProb(tc.Priors.In)
		glog.Infof("iteration %d: P(in) %g ~ P(out) %g", i, newIn, a.ToProb(priors.Out))

		it := Iteration{Number: i, PriorIn: newIn, Results: tc.results(post), Ignored: ignored}
		if err := t.sink.Iteration(ctx, it); err != nil {
			return fmt.Errorf("write iteration %d: %w", i, err)
		}
		sum.Iterations = i
		sum.PriorIn = newIn

		if i > 1 && opts.ConvergenceThreshold > 0 && math.Abs(newIn-oldIn) <= opts.ConvergenceThreshold {
			glog.Infof("converged after iteration %d", i)
			sum.Converged = true
			return nil
		}
		tc.Priors = priors

		if i < opts.MaxIterations {
			if err := tc.Maximize(ctx, t.pool, post, in, opts.ConfidenceThreshold); err != nil {
				return fmt.Errorf("iteration %d: %w", i, err)
			}
		}
	}
	return nil
}

// results ranks the usable mixed sentences by P(in | s) with the in-domain LM score of
// both sides as secondary key.
func (tc *TrainingContext) results(post Posteriors) []Result {
	a := tc.Arith
	rs := make([]Result, 0, len(post.In)-tc.Ignore.Len())
	for sent := range post.In {
		if tc.Ignore.Contains(sent) {
			continue
		}
		r := Result{Sentence: sent, Score: a.ToProb(post.In[sent])}
		if tc.LM != nil {
			r.LMScore = tc.LM.InSrc[sent] + tc.LM.InTrg[sent]
		}
		rs = append(rs, r)
	}
	SortResults(rs)
	return rs
}
