package lm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// DefaultCommand is the KenLM estimator binary.
const DefaultCommand = "lmplz"

// CommandEstimator runs an external toolkit that reads training text on stdin and writes
// an ARPA model to stdout.
type CommandEstimator struct {
	Path string
	Args []string
}

// NewKenLMEstimator returns an estimator for an lmplz-compatible command of the given
// order. command may carry extra leading arguments.
func NewKenLMEstimator(command string, order int) *CommandEstimator {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{DefaultCommand}
	}
	args := append(fields[1:], "-o", strconv.Itoa(order), "--discount_fallback")
	return &CommandEstimator{Path: fields[0], Args: args}
}

// Estimate trains a model on textPath and writes it to arpaPath.
func (e *CommandEstimator) Estimate(ctx context.Context, textPath, arpaPath string) error {
	in, err := os.Open(textPath)
	if err != nil {
		return fmt.Errorf("lm: open training text: %w", err)
	}
	defer in.Close()

	out, err := os.Create(arpaPath)
	if err != nil {
		return fmt.Errorf("lm: create model file: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Path, e.Args...)
	cmd.Stdin = in
	cmd.Stdout = out
	cmd.Stderr = &stderr

	glog.Infof("estimating %s from %s", arpaPath, textPath)
	runErr := cmd.Run()
	closeErr := out.Close()
	if runErr != nil {
		return fmt.Errorf("lm: %s %s: %w: %s", e.Path, strings.Join(e.Args, " "), runErr, lastLine(stderr.String()))
	}
	if closeErr != nil {
		return fmt.Errorf("lm: write model file: %w", closeErr)
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
