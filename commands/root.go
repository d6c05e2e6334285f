// Package commands is the teatrade command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sourcesFile string

var rootCmd = &cobra.Command{
	Use:          "teatrade",
	Short:        "teatrade collects tea auction market data and publishes consolidated weekly reports.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sourcesFile, "sources", "", "Source registry (json5); overrides SOURCES_FILE.")
}

// ExecuteContext runs the command line and exits non-zero on error.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
