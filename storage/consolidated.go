package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"teatrade-scraper/models"
	"teatrade-scraper/utils"
)

// DashboardFile is the aggregate document written next to the consolidated reports.
const DashboardFile = "dashboard_summary.json"

const reportSuffix = "_consolidated.json"

// ReportDir is the sole writer of consolidated report files.
type ReportDir struct {
	root   string
	logger *utils.Logger
}

// NewReportDir creates root if needed.
func NewReportDir(root string, logger *utils.Logger) (*ReportDir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("consolidated: create output dir: %w", err)
	}
	return &ReportDir{root: root, logger: logger}, nil
}

// WriteReport writes report to name, replacing any earlier file of the same name.
func (d *ReportDir) WriteReport(name string, report *models.ConsolidatedReport) (string, error) {
	if !strings.HasSuffix(name, reportSuffix) {
		return "", fmt.Errorf("consolidated: %q is not a consolidated file name", name)
	}
	return d.writeJSON(name, report)
}

// WriteDashboard writes the dashboard summary.
func (d *ReportDir) WriteDashboard(summary *models.DashboardSummary) (string, error) {
	return d.writeJSON(DashboardFile, summary)
}

// LoadAll decodes every consolidated report in the directory, ordered by file name.
// Unreadable files are logged and skipped.
func (d *ReportDir) LoadAll() ([]map[string]any, int, error) {
	paths, err := filepath.Glob(filepath.Join(d.root, "*"+reportSuffix))
	if err != nil {
		return nil, 0, fmt.Errorf("consolidated: list: %w", err)
	}
	sort.Strings(paths)

	docs := make([]map[string]any, 0, len(paths))
	skipped := 0
	for _, p := range paths {
		var doc map[string]any
		if err := readJSON(p, &doc); err != nil {
			d.logger.Warn("[consolidated] Skipping %s: %v", p, err)
			skipped++
			continue
		}
		docs = append(docs, doc)
	}
	return docs, skipped, nil
}

// writeJSON replaces the file through a rename so readers never see a partial document.
func (d *ReportDir) writeJSON(name string, v any) (string, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("consolidated: encode %s: %w", name, err)
	}
	path := filepath.Join(d.root, name)
	tmp, err := os.CreateTemp(d.root, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("consolidated: create temp for %s: %w", name, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("consolidated: chmod %s: %w", name, err)
	}
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("consolidated: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("consolidated: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("consolidated: replace %s: %w", name, err)
	}
	return path, nil
}
