package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/amirkamran/InvitationModel/pkg/arith"
	"github.com/amirkamran/InvitationModel/pkg/config"
	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/db"
	"github.com/amirkamran/InvitationModel/pkg/dispatch"
	"github.com/amirkamran/InvitationModel/pkg/invitation"
	"github.com/amirkamran/InvitationModel/pkg/lm"
	"github.com/amirkamran/InvitationModel/pkg/report"
)

// tableDir is the subdirectory of the output directory holding trained tables.
const tableDir = "tables"

func dictionaryPath(dir, lang string) string {
	return filepath.Join(dir, "dict."+lang+".json")
}

func newTrainCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Rank a mixed-domain corpus against an in-domain corpus",
		Long: `Train reads <in>.<src>, <in>.<trg>, <mix>.<src> and <mix>.<trg>, runs the
invitation model and writes one ranking of the mixed corpus per iteration into the
output directory.

Examples:
  invitation train --in data/in --mix data/mix --src en --trg ja --segmenter ja=kagome
  invitation train --config run.yaml --convergence-threshold 0.001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			sum, err := train(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d iterations, P(in) %g, converged %v, %d ignored, results in %s\n",
				sum.RunID, sum.Iterations, sum.PriorIn, sum.Converged, sum.Ignored, cfg.OutputDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration file; flags override its keys")
	bindConfigFlags(cmd.Flags(), config.Default())
	return cmd
}

func newEncoder(cfg *config.Config, lang string) (*corpus.Encoder, error) {
	seg, err := corpus.NewSegmenter(cfg.Segmenter(lang))
	if err != nil {
		return nil, err
	}
	return corpus.NewEncoder(corpus.NewDictionary(), seg), nil
}

func train(ctx context.Context, cfg *config.Config) (invitation.Summary, error) {
	start := time.Now()
	a, err := arith.ByName(cfg.Arithmetic)
	if err != nil {
		return invitation.Summary{}, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return invitation.Summary{}, err
	}

	srcEnc, err := newEncoder(cfg, cfg.Src)
	if err != nil {
		return invitation.Summary{}, err
	}
	trgEnc, err := newEncoder(cfg, cfg.Trg)
	if err != nil {
		return invitation.Summary{}, err
	}
	in, err := corpus.ReadParallel(cfg.In, cfg.Src, cfg.Trg, srcEnc, trgEnc)
	if err != nil {
		return invitation.Summary{}, fmt.Errorf("read in-domain corpus: %w", err)
	}
	mixed, err := corpus.ReadParallel(cfg.Mix, cfg.Src, cfg.Trg, srcEnc, trgEnc)
	if err != nil {
		return invitation.Summary{}, fmt.Errorf("read mixed corpus: %w", err)
	}
	for _, e := range []struct {
		lang string
		enc  *corpus.Encoder
	}{{cfg.Src, srcEnc}, {cfg.Trg, trgEnc}} {
		if err := e.enc.Dict.Save(dictionaryPath(cfg.OutputDir, e.lang)); err != nil {
			return invitation.Summary{}, fmt.Errorf("save %s dictionary: %w", e.lang, err)
		}
		glog.Infof("%s vocabulary: %d words", e.lang, e.enc.Dict.Size()-1)
	}

	pool := dispatch.NewWorkerPool(cfg.Workers, 0)
	pool.Start(ctx)
	defer pool.Close()

	var provider lm.Provider
	switch cfg.LM.Mode {
	case config.LMFiles:
		provider = &lm.FileProvider{Dir: cfg.LM.ScoreDir, Src: cfg.Src, Trg: cfg.Trg}
	default:
		provider = &lm.ToolkitProvider{
			Estimator: lm.NewKenLMEstimator(cfg.LM.Command, cfg.LM.Order),
			Pool:      pool,
			Dir:       cfg.LMDir(),
			Src:       cfg.Src,
			Trg:       cfg.Trg,
			OOVLog10:  cfg.LM.OOVLog10,
			Splits:    cfg.Splits,
		}
	}

	runID := db.NewRunID()
	fileSink, err := report.NewFileSink(cfg.OutputDir, cfg.Src, cfg.Trg)
	if err != nil {
		return invitation.Summary{}, err
	}
	sinks := report.Multi{fileSink}
	if cfg.Database != "" {
		conn, err := db.Open(cfg.Database)
		if err != nil {
			return invitation.Summary{}, err
		}
		defer conn.Close()
		doc, err := cfg.YAML()
		if err != nil {
			return invitation.Summary{}, err
		}
		dbSink, err := report.NewDBSink(conn, db.Run{
			ID:         runID,
			SrcLang:    cfg.Src,
			TrgLang:    cfg.Trg,
			Arithmetic: cfg.Arithmetic,
			Config:     doc,
		})
		if err != nil {
			return invitation.Summary{}, err
		}
		defer func() {
			if err := dbSink.Close(); err != nil {
				glog.Warningf("closing run record: %v", err)
			}
		}()
		sinks = append(sinks, dbSink)
	}

	tr := invitation.NewTrainer(invitation.Options{
		RunID:                runID,
		Arithmetic:           a,
		MaxIterations:        cfg.MaxIterations,
		ConfidenceThreshold:  cfg.ConfidenceThreshold,
		ConvergenceThreshold: cfg.ConvergenceThreshold,
		PseudoCount:          cfg.PseudoCount,
		Vocabulary:           cfg.Vocabulary,
		Splits:               cfg.Splits,
		TableDir:             filepath.Join(cfg.OutputDir, tableDir),
	}, pool, provider, sinks)

	sum, err := tr.Run(ctx, in, mixed)
	if err != nil {
		return sum, err
	}
	glog.Infof("run %s finished in %v", runID, time.Since(start).Round(time.Millisecond))
	return sum, nil
}
