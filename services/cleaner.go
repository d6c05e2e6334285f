package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"teatrade-scraper/extract"
	"teatrade-scraper/models"
	"teatrade-scraper/utils"
)

// numberRegexp captures the first numeric value of a cell.
var numberRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// Column heuristics, matched against lower-cased header text.
var (
	lotHeaders       = []string{"lot", "invoice"}
	gardenHeaders    = []string{"garden", "estate", "mark"}
	gradeHeaders     = []string{"grade"}
	priceHeaders     = []string{"price", "value", "rate"}
	quantityHeaders  = []string{"qty", "quantity", "kgs", "weight", "kg"}
	brokerHeaders    = []string{"broker"}
	warehouseHeaders = []string{"warehouse"}
)

// Cleaner turns table rows of a ScrapingResult into validated AuctionLots.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Lots extracts every lot-like row of r's tables. A row is a lot when it has a lot
// number and either a garden or a positive price. Duplicate natural keys keep the first
// row.
func (c *Cleaner) Lots(source string, r *models.ScrapingResult) []*models.AuctionLot {
	if r == nil || !r.Success {
		return nil
	}

	keys := make([]string, 0)
	for k := range r.RawData {
		if strings.HasPrefix(k, "table_") {
			keys = append(keys, k)
		}
	}
	sortTableKeys(keys)

	auctionDate := r.Timestamp.UTC().Truncate(24 * time.Hour)
	currency := ResolveCurrency(r.AuctionCenter)
	seen := make(map[string]struct{})
	lots := make([]*models.AuctionLot, 0)
	total := 0

	for _, k := range keys {
		for _, row := range extract.RowsOf(r.RawData[k]) {
			total++
			lotNo := normaliseText(pick(row, lotHeaders))
			garden := normaliseText(pick(row, gardenHeaders))
			price := parseNumber(pick(row, priceHeaders))
			if lotNo == "" || (garden == "" && price <= 0) {
				continue
			}
			if _, dup := seen[lotNo]; dup {
				c.logger.Debug("[cleaner] Duplicate lot %s skipped", lotNo)
				continue
			}
			seen[lotNo] = struct{}{}

			lots = append(lots, &models.AuctionLot{
				Source:      source,
				CentreName:  r.AuctionCenter,
				LotNo:       lotNo,
				GardenName:  garden,
				Grade:       normaliseText(pick(row, gradeHeaders)),
				Quantity:    parseNumber(pick(row, quantityHeaders)),
				Price:       price,
				Currency:    currency,
				AuctionDate: auctionDate,
				Broker:      normaliseText(pick(row, brokerHeaders)),
				Warehouse:   normaliseText(pick(row, warehouseHeaders)),
				SourceURL:   r.SourceURL,
			})
		}
	}

	if total > 0 {
		c.logger.Info("[cleaner] %s: %d rows → %d lots", r.AuctionCenter, total, len(lots))
	}
	return lots
}

// sortTableKeys orders table_<i> keys by document position; keys without a numeric
// index go last.
func sortTableKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(strings.TrimPrefix(keys[i], "table_"))
		b, bErr := strconv.Atoi(strings.TrimPrefix(keys[j], "table_"))
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		}
		return keys[i] < keys[j]
	})
}

// Gardens returns the distinct non-empty garden names of lots, sorted.
func Gardens(lots []*models.AuctionLot) []string {
	set := make(map[string]struct{})
	for _, l := range lots {
		if l.GardenName != "" {
			set[l.GardenName] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// pick returns the value of the first column whose header contains one of the
// keywords. Keywords are tried in priority order.
func pick(row extract.Row, keywords []string) string {
	headers := make([]string, 0, len(row))
	for h := range row {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	for _, kw := range keywords {
		for _, h := range headers {
			if strings.Contains(strings.ToLower(h), kw) {
				return row[h]
			}
		}
	}
	return ""
}

// parseNumber extracts the first numeric value of a cell.
// Examples:
//
//	"3.10" → 3.1
//	"USD 2,845.50" → 2845.5
//	"withdrawn" → 0
func parseNumber(raw string) float64 {
	match := numberRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	val, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0
	}
	return val
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
