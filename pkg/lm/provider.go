package lm

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/dispatch"
)

// Domain names used in model and score file names.
const (
	InDomain  = "indomain"
	OutDomain = "outdomain"
)

// ToolkitProvider trains the four models with an Estimator and scores the mixed corpus
// with them. Training text and models are kept in Dir.
type ToolkitProvider struct {
	Estimator Estimator
	Pool      dispatch.Submitter
	Dir       string
	Src, Trg  string
	OOVLog10  float64
	Splits    int
}

type modelSpec struct {
	domain, lang string
	train        corpus.Corpus
	score        corpus.Corpus
	dst          *[]float64
}

// Models estimates in-domain and out-of-domain models for both languages concurrently,
// then scores the mixed corpus with each.
func (p *ToolkitProvider) Models(ctx context.Context, req Request) (Scores, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return Scores{}, fmt.Errorf("lm: %w", err)
	}
	var scores Scores
	specs := []modelSpec{
		{InDomain, p.Src, req.In.Source, req.Mixed.Source, &scores.InSrc},
		{InDomain, p.Trg, req.In.Target, req.Mixed.Target, &scores.InTrg},
		{OutDomain, p.Src, req.Out.Source, req.Mixed.Source, &scores.OutSrc},
		{OutDomain, p.Trg, req.Out.Target, req.Mixed.Target, &scores.OutTrg},
	}

	models := make([]*ARPAModel, len(specs))
	jobs := make([]dispatch.Job, 0, len(specs))
	for i, spec := range specs {
		i, spec := i, spec
		jobs = append(jobs, func(ctx context.Context) error {
			base := filepath.Join(p.Dir, spec.domain+"."+spec.lang)
			text := base + ".encoded"
			if err := corpus.WriteEncodedFile(text, spec.train); err != nil {
				return err
			}
			arpa := base + ".arpa"
			if err := p.Estimator.Estimate(ctx, text, arpa); err != nil {
				return err
			}
			m, err := LoadARPA(arpa, p.OOVLog10)
			if err != nil {
				return err
			}
			models[i] = m
			return nil
		})
	}
	if err := dispatch.RunPhase(ctx, p.Pool, jobs); err != nil {
		return Scores{}, err
	}

	for i, spec := range specs {
		v, err := ScoreCorpus(ctx, p.Pool, models[i], spec.score, p.Splits)
		if err != nil {
			return Scores{}, err
		}
		*spec.dst = v
		glog.Infof("scored %d mixed sentences with the %s %s model", len(v), spec.domain, spec.lang)
	}
	return scores, nil
}

// ScoreFileName is the file FileProvider reads for one model.
func ScoreFileName(dir, domain, lang string) string {
	return filepath.Join(dir, domain+"."+lang+".scores")
}

// FileProvider reads pre-computed base-10 sentence scores of the mixed corpus from
// <Dir>/<domain>.<lang>.scores, one per line.
type FileProvider struct {
	Dir      string
	Src, Trg string
}

// Models reads the four score files.
func (p *FileProvider) Models(_ context.Context, req Request) (Scores, error) {
	var scores Scores
	for _, f := range []struct {
		domain, lang string
		dst          *[]float64
	}{
		{InDomain, p.Src, &scores.InSrc},
		{InDomain, p.Trg, &scores.InTrg},
		{OutDomain, p.Src, &scores.OutSrc},
		{OutDomain, p.Trg, &scores.OutTrg},
	} {
		v, err := ReadScoreFile(ScoreFileName(p.Dir, f.domain, f.lang))
		if err != nil {
			return Scores{}, err
		}
		*f.dst = v
	}
	if err := scores.Validate(req.Mixed.Len()); err != nil {
		return Scores{}, err
	}
	return scores, nil
}

// ReadScoreFile parses one base-10 log probability per line and returns natural logs.
// Blank lines are errors; "-inf" is accepted.
func ReadScoreFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lm: %w", err)
	}
	defer f.Close()

	var out []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		v, err := strconv.ParseFloat(strings.TrimSpace(sc.Text()), 64)
		if err != nil {
			return nil, fmt.Errorf("lm: %s:%d: %w", path, line, err)
		}
		out = append(out, Log10ToLn(v))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lm: read %s: %w", path, err)
	}
	return out, nil
}
