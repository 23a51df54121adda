package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for bfscrawler.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bfscrawler",
		Short: "Breadth-first web crawler and broken link checker",
		Long: `bfscrawler crawls a web site breadth-first, starting from a seed URL.

Every dequeued URL is fetched once. Anchors found on fetched pages are
resolved and queued, and URLs that cannot be fetched are reported as broken.
The crawl stops when no URL is left or the visit limit is reached.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
