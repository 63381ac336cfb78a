package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/amirkamran/InvitationModel/pkg/corpus"
	"github.com/amirkamran/InvitationModel/pkg/dispatch"
	"github.com/amirkamran/InvitationModel/pkg/invitation"
	"github.com/amirkamran/InvitationModel/pkg/ttable"
)

type alignOptions struct {
	dir        string
	prefix     string
	src, trg   string
	domain     string
	output     string
	workers    int
	segmenters map[string]string
}

func newAlignCmd() *cobra.Command {
	opts := alignOptions{dir: ".", domain: "in", workers: runtime.GOMAXPROCS(0)}
	cmd := &cobra.Command{
		Use:   "align",
		Short: "Word-align a parallel corpus with trained tables",
		Long: `Align loads the tables and dictionaries written by train, aligns every pair of
<corpus>.<src> and <corpus>.<trg> in both directions and prints the links both
directions agree on, one sentence per line as 0-based "source-target" pairs.

Example:
  invitation align --dir out --corpus data/test --src en --trg ja --domain in`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if opts.output != "" && opts.output != "-" {
				f, err := os.Create(opts.output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return align(cmd.Context(), opts, w)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.dir, "dir", "d", opts.dir, "output directory of a train run")
	fs.StringVar(&opts.prefix, "corpus", "", "corpus prefix to align")
	fs.StringVar(&opts.src, "src", "", "source language suffix")
	fs.StringVar(&opts.trg, "trg", "", "target language suffix")
	fs.StringVar(&opts.domain, "domain", opts.domain, "tables to align with: in or out")
	fs.StringVarP(&opts.output, "output", "o", "", "alignment file (default stdout)")
	fs.IntVar(&opts.workers, "workers", opts.workers, "worker goroutines")
	fs.StringToStringVar(&opts.segmenters, "segmenter", nil, "segmenter per language, e.g. ja=kagome")
	for _, name := range []string{"corpus", "src", "trg"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func align(ctx context.Context, opts alignOptions, w io.Writer) error {
	var fwdSlot, revSlot int
	switch opts.domain {
	case "in":
		fwdSlot, revSlot = invitation.InTrgGivenSrc, invitation.InSrcGivenTrg
	case "out":
		fwdSlot, revSlot = invitation.OutTrgGivenSrc, invitation.OutSrcGivenTrg
	default:
		return fmt.Errorf("--domain must be in or out, got %q", opts.domain)
	}

	tables := filepath.Join(opts.dir, tableDir)
	fwd, err := invitation.LoadTableFile(tables, fwdSlot)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	rev, err := invitation.LoadTableFile(tables, revSlot)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}

	var enc [2]*corpus.Encoder
	for i, lang := range []string{opts.src, opts.trg} {
		dict, err := corpus.LoadDictionary(dictionaryPath(opts.dir, lang))
		if err != nil {
			return fmt.Errorf("load %s dictionary: %w", lang, err)
		}
		seg, err := corpus.NewSegmenter(opts.segmenters[lang])
		if err != nil {
			return err
		}
		enc[i] = corpus.NewEncoder(dict, seg)
	}
	c, err := corpus.ReadParallel(opts.prefix, opts.src, opts.trg, enc[0], enc[1])
	if err != nil {
		return err
	}

	pool := dispatch.NewWorkerPool(opts.workers, 0)
	pool.Start(ctx)
	defer pool.Close()

	links, err := invitation.Align(ctx, pool, fwd, rev, c)
	if err != nil {
		return err
	}
	glog.Infof("aligned %d sentence pairs", len(links))
	return ttable.WriteAlignments(w, links)
}
