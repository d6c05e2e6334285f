package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"teatrade-scraper/models"
	"teatrade-scraper/utils"
)

// SourceStat is the outcome of one adapter.
type SourceStat struct {
	Name    string
	OK      int
	Failed  int
	Centers []string
	// Panicked or errored adapters are recorded with no results.
	Err string
}

// RunReport describes a complete pipeline run.
type RunReport struct {
	RunID          string
	StartedAt      time.Time
	Duration       time.Duration
	Sources        []SourceStat
	ReportsWritten int
	Violations     int
}

func (r *RunReport) TotalOK() int {
	n := 0
	for _, s := range r.Sources {
		n += s.OK
	}
	return n
}

func (r *RunReport) TotalFailed() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Failed
	}
	return n
}

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// SourceStat tallies the results of one adapter.
func (s *InsightService) SourceStat(name string, results []*models.ScrapingResult) SourceStat {
	stat := SourceStat{Name: name}
	centers := make(map[string]struct{})
	successful, failed := models.Partition(results)
	stat.OK, stat.Failed = len(successful), len(failed)
	for _, r := range successful {
		centers[r.AuctionCenter] = struct{}{}
	}
	for c := range centers {
		stat.Centers = append(stat.Centers, c)
	}
	sort.Strings(stat.Centers)
	return stat
}

// Print renders the run summary as a table.
func (s *InsightService) Print(w io.Writer, r *RunReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("TEA AUCTION RUN %s", shortID(r.RunID)))
	t.AppendHeader(table.Row{"Source", "OK", "Failed", "Centers"})
	for _, src := range r.Sources {
		centers := strings.Join(src.Centers, ", ")
		if src.Err != "" {
			centers = "error: " + truncate(src.Err, 40)
		}
		t.AppendRow(table.Row{src.Name, src.OK, src.Failed, centers})
	}
	t.AppendFooter(table.Row{"Total", r.TotalOK(), r.TotalFailed(),
		fmt.Sprintf("%d reports, %d violations, %s", r.ReportsWritten, r.Violations, r.Duration.Round(time.Second))})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
