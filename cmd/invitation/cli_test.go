package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/amirkamran/InvitationModel/pkg/config"
	"github.com/amirkamran/InvitationModel/pkg/invitation"
	"github.com/amirkamran/InvitationModel/pkg/report"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// fixture writes a two-pair in-domain corpus, a four-pair mixed corpus and flat
// language model scores for the mixed corpus.
func fixture(t *testing.T) (dir string) {
	dir = t.TempDir()
	writeLines(t, filepath.Join(dir, "in.en"), "the house", "a garden")
	writeLines(t, filepath.Join(dir, "in.nl"), "het huis", "een tuin")
	writeLines(t, filepath.Join(dir, "mix.en"), "the house", "a garden", "stock prices fell", "markets closed")
	writeLines(t, filepath.Join(dir, "mix.nl"), "het huis", "een tuin", "aandelen daalden", "markten sloten")

	scores := filepath.Join(dir, "scores")
	if err := os.Mkdir(scores, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"indomain.en", "indomain.nl", "outdomain.en", "outdomain.nl"} {
		writeLines(t, filepath.Join(scores, name+".scores"), "-2", "-2", "-2", "-2")
	}
	return dir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("invitation %s failed: %v\noutput:\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestCLI_TrainAndAlign(t *testing.T) {
	dir := fixture(t)
	out := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "runs.db")

	stdout := execute(t, "train",
		"--in", filepath.Join(dir, "in"),
		"--mix", filepath.Join(dir, "mix"),
		"--src", "en", "--trg", "nl",
		"--max-iterations", "2",
		"--workers", "2",
		"--lm-mode", "files",
		"--lm-scores", filepath.Join(dir, "scores"),
		"--db", dbPath,
		"-o", out,
	)
	if !strings.Contains(stdout, "2 iterations") {
		t.Fatalf("unexpected train output:\n%s", stdout)
	}

	for _, name := range []string{
		report.OutDomainScores,
		report.IterationFile(1),
		report.IterationFile(2),
		report.SummaryFile,
		"dict.en.json",
		"dict.nl.json",
		filepath.Join(tableDir, invitation.TableFile(invitation.InTrgGivenSrc)),
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("expected %s in output: %v", name, err)
		}
	}

	ranking, err := os.ReadFile(filepath.Join(out, report.IterationFile(2)))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(ranking), "\n"); n != 4 {
		t.Fatalf("expected 4 ranked sentences, got %d:\n%s", n, ranking)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer conn.Close()
	var iterations int
	if err := conn.QueryRow("SELECT iterations FROM runs").Scan(&iterations); err != nil {
		t.Fatalf("db query failed: %v", err)
	}
	if iterations != 2 {
		t.Fatalf("expected 2 recorded iterations, got %d", iterations)
	}

	aligned := execute(t, "align",
		"--dir", out,
		"--corpus", filepath.Join(dir, "mix"),
		"--src", "en", "--trg", "nl",
	)
	if n := strings.Count(aligned, "\n"); n != 4 {
		t.Fatalf("expected one alignment line per sentence, got %d:\n%s", n, aligned)
	}
}

func TestCLI_TrainRequiresCorpora(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"train", "--src", "en", "--trg", "nl"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "mix is required") {
		t.Fatalf("expected missing corpus error, got %v", err)
	}
}

func TestCLI_AlignRejectsUnknownDomain(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"align", "--corpus", "x", "--src", "en", "--trg", "nl", "--domain", "both"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "--domain") {
		t.Fatalf("expected domain error, got %v", err)
	}
}

func TestCLI_Version(t *testing.T) {
	if got := execute(t, "version"); got != "invitation dev\n" {
		t.Fatalf("unexpected version output %q", got)
	}
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	writeLines(t, path,
		"mix: corpora/mix",
		"in: corpora/in",
		"src: en",
		"trg: ja",
		"max_iterations: 7",
		"segmenters:",
		"  ja: kagome",
	)

	cmd := newTrainCmd()
	if err := cmd.ParseFlags([]string{"--max-iterations", "3", "--segmenter", "en=whitespace", "--arithmetic", "linear"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig(path, cmd.Flags())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.MaxIterations != 3 {
		t.Fatalf("flag should win: max_iterations = %d", cfg.MaxIterations)
	}
	if cfg.Arithmetic != "linear" {
		t.Fatalf("arithmetic = %q", cfg.Arithmetic)
	}
	if cfg.Mix != "corpora/mix" || cfg.PseudoCount != config.Default().PseudoCount {
		t.Fatalf("file and default values lost: %+v", cfg)
	}
	if cfg.Segmenter("ja") != "kagome" || cfg.Segmenter("en") != "whitespace" {
		t.Fatalf("segmenters not merged: %v", cfg.Segmenters)
	}
}
