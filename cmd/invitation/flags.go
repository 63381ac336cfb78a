package main

import (
	"github.com/spf13/pflag"

	"github.com/amirkamran/InvitationModel/pkg/config"
)

// bindConfigFlags registers one flag per configuration key, defaulting to the current
// values of c.
func bindConfigFlags(fs *pflag.FlagSet, c *config.Config) {
	fs.StringVar(&c.Mix, "mix", c.Mix, "mixed-domain corpus prefix")
	fs.StringVar(&c.In, "in", c.In, "in-domain corpus prefix")
	fs.StringVar(&c.Src, "src", c.Src, "source language suffix")
	fs.StringVar(&c.Trg, "trg", c.Trg, "target language suffix")
	fs.IntVar(&c.MaxIterations, "max-iterations", c.MaxIterations, "maximum number of EM iterations")
	fs.Float64Var(&c.ConfidenceThreshold, "confidence-threshold", c.ConfidenceThreshold, "smallest posterior with which a mixed sentence updates the tables")
	fs.Float64Var(&c.ConvergenceThreshold, "convergence-threshold", c.ConvergenceThreshold, "stop once P(in) changes by at most this much (0 disables)")
	fs.Float64Var(&c.PseudoCount, "pseudo-count", c.PseudoCount, "smoothing pseudo count n")
	fs.IntVar(&c.Vocabulary, "vocabulary", c.Vocabulary, "smoothing vocabulary size V")
	fs.IntVar(&c.Splits, "splits", c.Splits, "ranges per scoring pass")
	fs.IntVar(&c.Workers, "workers", c.Workers, "worker goroutines")
	fs.StringVar(&c.Arithmetic, "arithmetic", c.Arithmetic, "probability arithmetic: log or linear")
	fs.StringVarP(&c.OutputDir, "output-dir", "o", c.OutputDir, "directory for rankings, tables and models")
	fs.StringVar(&c.Database, "db", c.Database, "sqlite database recording the run")
	fs.StringVar(&c.LM.Mode, "lm-mode", c.LM.Mode, "language model source: toolkit or files")
	fs.IntVar(&c.LM.Order, "lm-order", c.LM.Order, "n-gram order of estimated models")
	fs.StringVar(&c.LM.Command, "lm-command", c.LM.Command, "ARPA estimator reading text on stdin")
	fs.Float64Var(&c.LM.OOVLog10, "lm-oov", c.LM.OOVLog10, "base-10 weight of unscorable words")
	fs.StringVar(&c.LM.ScoreDir, "lm-scores", c.LM.ScoreDir, "directory of precomputed <domain>.<lang>.scores files")
	fs.StringToStringVar(&c.Segmenters, "segmenter", c.Segmenters, "segmenter per language, e.g. ja=kagome")
}

// resolveConfig starts from the defaults or the file at path and applies every flag the
// user set on fs.
func resolveConfig(path string, fs *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	overrides := pflag.NewFlagSet("overrides", pflag.ContinueOnError)
	bindConfigFlags(overrides, cfg)

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil || overrides.Lookup(f.Name) == nil {
			return
		}
		if f.Value.Type() == "stringToString" {
			// merged key by key so file entries for other languages survive
			var m map[string]string
			if m, err = fs.GetStringToString(f.Name); err != nil {
				return
			}
			if cfg.Segmenters == nil {
				cfg.Segmenters = make(map[string]string, len(m))
			}
			for lang, name := range m {
				cfg.Segmenters[lang] = name
			}
			return
		}
		err = overrides.Set(f.Name, f.Value.String())
	})
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}
