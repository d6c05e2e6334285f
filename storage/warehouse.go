package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"teatrade-scraper/models"
	"teatrade-scraper/utils"
)

const fileStamp = "20060102_150405"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Warehouse writes results under raw/, processed/ and analysis/ of its root.
// It is safe for concurrent use.
type Warehouse struct {
	mu     sync.Mutex
	root   string
	now    func() time.Time
	logger *utils.Logger
}

// NewWarehouse creates the warehouse directories below root.
func NewWarehouse(root string, logger *utils.Logger) (*Warehouse, error) {
	for _, dir := range []string{"raw", "processed", "analysis"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("warehouse: create %s dir: %w", dir, err)
		}
	}
	return &Warehouse{root: root, now: time.Now, logger: logger}, nil
}

// Root returns the warehouse directory.
func (w *Warehouse) Root() string { return w.root }

// StoreRaw writes the full result to raw/<center>_<datatype>_<YYYYMMDD_HHMMSS>.json.
func (w *Warehouse) StoreRaw(r *models.ScrapingResult) (string, error) {
	return w.store("raw", r)
}

// StoreProcessed writes the result, including its processed data, under processed/.
func (w *Warehouse) StoreProcessed(r *models.ScrapingResult) (string, error) {
	return w.store("processed", r)
}

func (w *Warehouse) store(dir string, r *models.ScrapingResult) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("warehouse: encode %s result: %w", r.AuctionCenter, err)
	}

	base := fmt.Sprintf("%s_%s_%s", safeName(r.AuctionCenter), safeName(r.DataType), r.Timestamp.Format(fileStamp))
	path := filepath.Join(w.root, dir, base+".json")
	// Two results of the same center and data type can land in the same second.
	for n := 1; fileExists(path); n++ {
		path = filepath.Join(w.root, dir, fmt.Sprintf("%s_%d.json", base, n))
	}

	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("warehouse: write %q: %w", path, err)
	}
	return path, nil
}

// LoadRaw decodes every stored raw result, ordered by file name. Unreadable files are
// logged and skipped.
func (w *Warehouse) LoadRaw() ([]*models.ScrapingResult, int, error) {
	paths, err := filepath.Glob(filepath.Join(w.root, "raw", "*.json"))
	if err != nil {
		return nil, 0, fmt.Errorf("warehouse: list raw: %w", err)
	}
	sort.Strings(paths)

	results := make([]*models.ScrapingResult, 0, len(paths))
	skipped := 0
	for _, p := range paths {
		r := &models.ScrapingResult{}
		if err := readJSON(p, r); err != nil {
			w.logger.Warn("[warehouse] Skipping %s: %v", p, err)
			skipped++
			continue
		}
		results = append(results, r)
	}
	if skipped > 0 {
		w.logger.Warn("[warehouse] %d of %d raw files skipped", skipped, len(paths))
	}
	return results, skipped, nil
}

// BuildDataset writes analysis/dataset_<ts>.csv with one row per result. Nested maps
// become dotted columns; lists and other values are JSON-encoded into their cell.
func (w *Warehouse) BuildDataset(results []*models.ScrapingResult) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows := make([]map[string]string, 0, len(results))
	columns := make(map[string]struct{})
	for _, r := range results {
		if r == nil {
			continue
		}
		row := map[string]string{
			"source_url":     r.SourceURL,
			"auction_center": r.AuctionCenter,
			"data_type":      r.DataType,
			"timestamp":      r.Timestamp.Format(time.RFC3339),
			"success":        strconv.FormatBool(r.Success),
			"error_message":  r.ErrorMessage,
		}
		flatten("raw_data", r.RawData, row)
		flatten("processed_data", r.ProcessedData, row)
		flatten("metadata", r.Metadata, row)
		for k := range row {
			columns[k] = struct{}{}
		}
		rows = append(rows, row)
	}

	header := orderedColumns(columns)
	path := filepath.Join(w.root, "analysis", "dataset_"+w.now().Format(fileStamp)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("dataset: create file %q: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("dataset: write header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, col := range header {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("dataset: write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("dataset: flush: %w", err)
	}
	return path, nil
}

var leadingColumns = []string{"source_url", "auction_center", "data_type", "timestamp", "success", "error_message"}

// orderedColumns puts the envelope columns first, then the flattened ones sorted.
func orderedColumns(columns map[string]struct{}) []string {
	header := make([]string, 0, len(columns))
	for _, c := range leadingColumns {
		header = append(header, c)
		delete(columns, c)
	}
	rest := make([]string, 0, len(columns))
	for c := range columns {
		rest = append(rest, c)
	}
	sort.Strings(rest)
	return append(header, rest...)
}

func flatten(prefix string, m map[string]any, into map[string]string) {
	for k, v := range m {
		key := prefix + "." + k
		switch t := v.(type) {
		case map[string]any:
			flatten(key, t, into)
		case string:
			into[key] = t
		case nil:
			into[key] = ""
		default:
			b, err := json.Marshal(t)
			if err != nil {
				into[key] = fmt.Sprint(t)
				continue
			}
			into[key] = string(b)
		}
	}
}

func safeName(s string) string {
	s = strings.Trim(unsafeName.ReplaceAllString(s, "_"), "_")
	if s == "" {
		return "unknown"
	}
	return s
}

func readJSON(path string, v any) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
