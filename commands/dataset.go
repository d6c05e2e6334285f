package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(datasetCmd)
}

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Builds the analysis CSV from every raw result stored in the warehouse.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		path, err := a.orch.BuildDataset()
		if err != nil {
			return err
		}
		a.logger.Info("Analysis dataset written to %s", path)
		return nil
	},
}
