package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"teatrade-scraper/config"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Lists the configured sources and the pages scraped from each.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := loadConfig()
		sources, err := config.LoadSources(cfg.SourcesFile)
		if err != nil {
			return err
		}
		printSources(cmd.OutOrStdout(), sources)
		return nil
	},
}

func printSources(w io.Writer, sources []config.Source) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Source", "Family", "Center", "Data type", "URL"})
	for _, s := range sources {
		centers := s.Centers
		if len(centers) == 0 {
			centers = []string{""}
		}
		for _, e := range s.Endpoints {
			ids := make([]string, 0, len(centers))
			for _, c := range centers {
				ids = append(ids, s.CenterFor(e, c))
			}
			t.AppendRow(table.Row{s.Name, s.Family, strings.Join(ids, ", "), e.DataType, s.URLFor(e)})
		}
		t.AppendSeparator()
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d sources", len(sources))})
	t.Render()
}
