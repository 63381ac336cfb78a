// Package config holds the settings of a training run, read from YAML and overridden
// by command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/amirkamran/InvitationModel/pkg/arith"
	"github.com/amirkamran/InvitationModel/pkg/corpus"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Language model modes.
const (
	LMToolkit = "toolkit"
	LMFiles   = "files"
)

// LMConfig selects where sentence-level language model scores come from.
type LMConfig struct {
	// Mode is "toolkit" (estimate ARPA models with Command) or "files" (read scores
	// from ScoreDir).
	Mode string `yaml:"mode"`

	// Order is the n-gram order passed to the estimator.
	Order int `yaml:"order"`

	// Command is the estimator binary, optionally with leading arguments.
	Command string `yaml:"command"`

	// OOVLog10 is the base-10 weight of words the model cannot score.
	OOVLog10 float64 `yaml:"oov_log10"`

	// Dir keeps training text and models; defaults to <output_dir>/lm.
	Dir string `yaml:"dir,omitempty"`

	// ScoreDir holds <domain>.<lang>.scores files in "files" mode.
	ScoreDir string `yaml:"score_dir,omitempty"`
}

// Config holds everything a training run needs.
type Config struct {
	// Mix and In are corpus prefixes; the corpora are <prefix>.<src> and <prefix>.<trg>.
	Mix string `yaml:"mix"`
	In  string `yaml:"in"`
	Src string `yaml:"src"`
	Trg string `yaml:"trg"`

	MaxIterations int `yaml:"max_iterations"`

	// ConfidenceThreshold is the smallest posterior with which a mixed sentence updates
	// the tables; 0 keeps all.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// ConvergenceThreshold stops training when P(in) changes by at most this much; 0
	// disables it.
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`

	PseudoCount float64 `yaml:"pseudo_count"`
	Vocabulary  int     `yaml:"vocabulary"`
	Splits      int     `yaml:"splits"`
	Workers     int     `yaml:"workers"`
	Arithmetic  string  `yaml:"arithmetic"`

	OutputDir string `yaml:"output_dir"`

	// Database is a sqlite file recording the run; empty disables it.
	Database string `yaml:"database,omitempty"`

	LM LMConfig `yaml:"lm"`

	// Segmenters maps a language tag to "whitespace" or "kagome".
	Segmenters map[string]string `yaml:"segmenters,omitempty"`
}

// Default returns the configuration used for keys a file or flag leaves unset.
func Default() *Config {
	return &Config{
		MaxIterations: 10,
		PseudoCount:   0.3,
		Vocabulary:    100000,
		Splits:        50,
		Workers:       runtime.GOMAXPROCS(0),
		Arithmetic:    arith.LogName,
		OutputDir:     ".",
		LM: LMConfig{
			Mode:     LMToolkit,
			Order:    4,
			Command:  "lmplz",
			OOVLog10: -7,
		},
	}
}

// Load reads path over the defaults. It does not validate, so flags can still fill in
// required keys.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate reports every missing or out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, args...)...))
	}

	for _, kv := range [][2]string{{"mix", c.Mix}, {"in", c.In}, {"src", c.Src}, {"trg", c.Trg}} {
		if kv[1] == "" {
			bad("%s is required", kv[0])
		}
	}
	if c.Src != "" && c.Src == c.Trg {
		bad("src and trg must differ, both are %q", c.Src)
	}
	if c.MaxIterations < 1 {
		bad("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		bad("confidence_threshold must be between 0 and 1, got %g", c.ConfidenceThreshold)
	}
	if c.ConvergenceThreshold < 0 || c.ConvergenceThreshold > 1 {
		bad("convergence_threshold must be between 0 and 1, got %g", c.ConvergenceThreshold)
	}
	if c.PseudoCount <= 0 {
		bad("pseudo_count must be positive, got %g", c.PseudoCount)
	}
	if c.Vocabulary < 1 {
		bad("vocabulary must be positive, got %d", c.Vocabulary)
	}
	if c.Splits < 1 {
		bad("splits must be positive, got %d", c.Splits)
	}
	if c.Workers < 1 {
		bad("workers must be positive, got %d", c.Workers)
	}
	if _, err := arith.ByName(c.Arithmetic); err != nil {
		bad("arithmetic: %v", err)
	}
	if c.OutputDir == "" {
		bad("output_dir is required")
	}
	switch c.LM.Mode {
	case LMToolkit:
		if c.LM.Order < 1 {
			bad("lm.order must be positive, got %d", c.LM.Order)
		}
	case LMFiles:
		if c.LM.ScoreDir == "" {
			bad("lm.score_dir is required in %q mode", LMFiles)
		}
	default:
		bad("lm.mode must be %q or %q, got %q", LMToolkit, LMFiles, c.LM.Mode)
	}
	for lang, name := range c.Segmenters {
		if name != corpus.WhitespaceName && name != corpus.KagomeName {
			bad("segmenters.%s must be %q or %q, got %q", lang, corpus.WhitespaceName, corpus.KagomeName, name)
		}
	}
	return errors.Join(errs...)
}

// Segmenter returns the segmenter name configured for lang.
func (c *Config) Segmenter(lang string) string {
	if name, ok := c.Segmenters[lang]; ok {
		return name
	}
	return corpus.WhitespaceName
}

// LMDir returns the directory for language model files.
func (c *Config) LMDir() string {
	if c.LM.Dir != "" {
		return c.LM.Dir
	}
	return filepath.Join(c.OutputDir, "lm")
}

// YAML returns the configuration as a YAML document.
func (c *Config) YAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
