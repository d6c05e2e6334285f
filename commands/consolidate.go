package commands

import (
	"github.com/spf13/cobra"
)

var consolidateNoDB bool

func init() {
	consolidateCmd.Flags().BoolVar(&consolidateNoDB, "no-db", false, "Skip PostgreSQL and write files only.")
	rootCmd.AddCommand(consolidateCmd)
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate [--no-db]",
	Short: "Re-integrates every raw result stored in the warehouse without scraping.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{database: !consolidateNoDB})
		if err != nil {
			return err
		}
		defer a.close()

		out, err := a.orch.Reintegrate(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("Consolidated %d reports (%d violations, %d failures, %d unreadable files skipped)",
			out.ReportsWritten, len(out.Violations), out.Failures, out.Skipped)
		return nil
	},
}
