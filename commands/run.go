package commands

import (
	"github.com/spf13/cobra"
)

var (
	runOnly  []string
	runNoDB  bool
	runCount bool
)

func init() {
	runCmd.Flags().StringSliceVar(&runOnly, "only", nil, "Scrape only these sources (by registry name).")
	runCmd.Flags().BoolVar(&runNoDB, "no-db", false, "Skip PostgreSQL and write files only.")
	runCmd.Flags().BoolVar(&runCount, "counts", false, "Log table row counts after the run.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--only <source>...] [--no-db]",
	Short: "Scrapes every configured source, then consolidates and stores the results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{only: runOnly, database: !runNoDB, scrapers: true})
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.orch.Run(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("=== Run %s finished: %d ok, %d failed, %d reports ===",
			report.RunID, report.TotalOK(), report.TotalFailed(), report.ReportsWritten)

		if runCount && a.sink != nil {
			counts, err := a.sink.CountRows(ctx)
			if err != nil {
				a.logger.Warn("[db] %v", err)
				return nil
			}
			for table, n := range counts {
				a.logger.Info("[db] %s: %d rows", table, n)
			}
		}
		return nil
	},
}
