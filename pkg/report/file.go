// Package report persists what a training run produces: tab-separated ranking files, a
// sqlite run record and a YAML summary.
package report

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/invitation"
)

// File names written by FileSink.
const (
	OutDomainScores = "outdomain.scores"
	OutDomainPrefix = "outdomain"
	SummaryFile     = "summary.yaml"
)

// IterationFile returns the name of the ranking written for iteration i.
func IterationFile(i int) string { return fmt.Sprintf("output_%d.txt", i) }

// FileSink writes rankings as tab-separated text into Dir. Sentence numbers are
// 1-based.
type FileSink struct {
	Dir      string
	Src, Trg string
}

// NewFileSink creates dir if needed.
func NewFileSink(dir, src, trg string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return &FileSink{Dir: dir, Src: src, Trg: trg}, nil
}

// OutDomain writes outdomain.scores (sentence, P(out)) and the selected pairs as
// outdomain.<lang>.encoded.
func (s *FileSink) OutDomain(_ context.Context, od invitation.OutDomain) error {
	err := s.writeLines(OutDomainScores, len(od.Ranking), func(w *bufio.Writer, i int) {
		r := od.Ranking[i]
		w.WriteString(strconv.Itoa(r.Sentence + 1))
		w.WriteByte('\t')
		w.WriteString(formatFloat(r.Score))
	})
	if err != nil {
		return err
	}
	for _, side := range []struct {
		lang string
		c    corpus.Corpus
	}{{s.Src, od.Selected.Source}, {s.Trg, od.Selected.Target}} {
		if err := corpus.WriteEncodedFile(filepath.Join(s.Dir, corpus.EncodedName(OutDomainPrefix, side.lang)), side.c); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	log.Infof("wrote %d burn-in scores, %d selected pairs to %s", len(od.Ranking), od.Selected.Len(), s.Dir)
	return nil
}

// Iteration writes output_<n>.txt: sentence, P(in), exp(in-domain LM score).
func (s *FileSink) Iteration(_ context.Context, it invitation.Iteration) error {
	return s.writeLines(IterationFile(it.Number), len(it.Results), func(w *bufio.Writer, i int) {
		r := it.Results[i]
		w.WriteString(strconv.Itoa(r.Sentence + 1))
		w.WriteByte('\t')
		w.WriteString(formatFloat(r.Score))
		w.WriteByte('\t')
		w.WriteString(formatFloat(math.Exp(r.LMScore)))
	})
}

type summaryFile struct {
	RunID         string  `yaml:"run_id,omitempty"`
	Iterations    int     `yaml:"iterations"`
	Converged     bool    `yaml:"converged"`
	PriorIn       float64 `yaml:"prior_in"`
	Ignored       int     `yaml:"ignored"`
	OutDomainSize int     `yaml:"outdomain_size"`
}

// Done writes summary.yaml.
func (s *FileSink) Done(_ context.Context, sum invitation.Summary) error {
	b, err := yaml.Marshal(summaryFile(sum))
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, SummaryFile), b, 0o644); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func (s *FileSink) writeLines(name string, n int, line func(w *bufio.Writer, i int)) error {
	path := filepath.Join(s.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	w := bufio.NewWriter(f)
	for i := 0; i < n; i++ {
		line(w, i)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
