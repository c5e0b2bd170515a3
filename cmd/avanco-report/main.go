// Command avanco-report renders the dashboard figures of a progress
// spreadsheet or snapshot from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "avanco-report",
		Short: "Avanço Físico (kg) reports from the progress spreadsheet",
		Long: `avanco-report loads the consolidated progress spreadsheet (or a snapshot
written by "avanco-report snapshot"), applies the dashboard filters and prints
the headline figures or exports the filtered table.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
	}

	opts.bindFlags(cmd)

	cmd.AddCommand(summaryCmd(opts))
	cmd.AddCommand(exportCmd(opts))
	cmd.AddCommand(snapshotCmd(opts))
	cmd.AddCommand(versionCmd())

	return cmd
}
