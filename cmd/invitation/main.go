// Command invitation selects in-domain sentence pairs from a mixed-domain parallel
// corpus and aligns corpora with the tables it trains.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "invitation",
		Short: "Invitation model data selection",
		Long: `Invitation ranks the sentence pairs of a mixed-domain parallel corpus by how
likely they belong to the domain of a small in-domain corpus.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	root.AddCommand(newTrainCmd(), newAlignCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "invitation "+version)
		},
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd().ExecuteContext(ctx)
	glog.Flush()
	if err != nil {
		glog.Exitf("invitation: %v", err)
	}
}
