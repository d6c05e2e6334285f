package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"teatrade-scraper/extract"
	"teatrade-scraper/models"
	"teatrade-scraper/utils"
)

// Summary fallbacks used when nothing usable was extracted.
const (
	DefaultTotalVolume  = 50000.0
	DefaultTotalLots    = 10
	DefaultAveragePrice = 100.0
	PercentSold         = 85.0
	PercentUnsold       = 15.0
)

const (
	qualityRich    = "Excellent - Real market intelligence extracted"
	qualityLimited = "Limited - Headers only or no enhanced data"
	commentary     = "Advanced scraping system data collection"
)

var centerRegions = map[string]string{
	"ATB_Mombasa":             "Kenya",
	"JThomas_Kolkata":         "India",
	"JThomas_Guwahati":        "India",
	"JThomas_Siliguri":        "India",
	"SriLanka_forbes_tea":     "Sri Lanka",
	"SriLanka_ceylon_brokers": "Sri Lanka",
	"SriLanka_john_keells":    "Sri Lanka",
}

var centerCurrencies = map[string]string{
	"ATB_Mombasa":             "USD",
	"JThomas_Kolkata":         "INR",
	"JThomas_Guwahati":        "INR",
	"JThomas_Siliguri":        "INR",
	"SriLanka_forbes_tea":     "LKR",
	"SriLanka_ceylon_brokers": "LKR",
	"SriLanka_john_keells":    "LKR",
}

// ResolveRegion maps an auction center id to its region, "Unknown" when unmapped.
func ResolveRegion(center string) string {
	if r, ok := centerRegions[center]; ok {
		return r
	}
	return "Unknown"
}

// ResolveCurrency maps an auction center id to its trading currency, USD when unmapped.
func ResolveCurrency(center string) string {
	if c, ok := centerCurrencies[center]; ok {
		return c
	}
	return "USD"
}

// Consolidator projects raw scraping results onto the fixed report schema.
type Consolidator struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewConsolidator creates a Consolidator. A nil clock means time.Now.
func NewConsolidator(logger *utils.Logger, now func() time.Time) *Consolidator {
	if now == nil {
		now = time.Now
	}
	return &Consolidator{logger: logger, now: now}
}

// Now returns the consolidation clock.
func (c *Consolidator) Now() time.Time {
	return c.now()
}

// Consolidate builds the weekly report for one successful result. The period is the
// week of consolidation, not of the scraped content.
func (c *Consolidator) Consolidate(r *models.ScrapingResult) *models.ConsolidatedReport {
	now := c.now()
	week, year := ReportWeek(now)
	raw := r.RawData
	if raw == nil {
		raw = map[string]any{}
	}

	volume := ExtractTotalVolume(raw)
	quality := qualityLimited
	if extract.IsMeaningful(raw) {
		quality = qualityRich
	}

	prices := raw["extracted_prices"]
	if prices == nil {
		prices = []any{}
	}

	report := &models.ConsolidatedReport{
		Metadata: models.ReportMetadata{
			Location:    strings.ToLower(r.AuctionCenter),
			DisplayName: DisplayName(r.AuctionCenter),
			Region:      ResolveRegion(r.AuctionCenter),
			Period:      fmt.Sprintf("S%d_%d", week, year),
			WeekNumber:  week,
			Year:        year,
			ReportTitle: r.AuctionCenter + " Market Report",
			DataQuality: quality,
			Currency:    ResolveCurrency(r.AuctionCenter),
			SourceURL:   r.SourceURL,
			DataType:    r.DataType,
		},
		Summary: models.ReportSummary{
			TotalOfferedKg:        volume,
			TotalSoldKg:           volume,
			TotalLots:             ExtractTotalLots(raw),
			AuctionAveragePrice:   ExtractAveragePrice(raw),
			PercentSold:           PercentSold,
			PercentUnsold:         PercentUnsold,
			CommentarySynthesized: commentary,
		},
		MarketIntelligence: raw,
		VolumeAnalysis:     map[string]any{"scraped_data": raw},
		PriceAnalysis:      map[string]any{"scraped_prices": prices},
	}

	c.logger.Debug("[consolidator] %s %s: %.0f kg, %d lots, avg %.2f %s",
		r.AuctionCenter, report.Metadata.Period, volume, report.Summary.TotalLots,
		report.Summary.AuctionAveragePrice, report.Metadata.Currency)
	return report
}

// ExtractTotalVolume sums the first five volume candidates with commas stripped. An empty
// list, any unparseable or non-finite candidate, or an overflowing sum yields
// DefaultTotalVolume.
func ExtractTotalVolume(raw map[string]any) float64 {
	volumes, ok := candidateStrings(raw["extracted_volumes"])
	if !ok || len(volumes) == 0 {
		return DefaultTotalVolume
	}
	if len(volumes) > 5 {
		volumes = volumes[:5]
	}
	var total float64
	for _, v := range volumes {
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return DefaultTotalVolume
		}
		total += f
	}
	if math.IsInf(total, 0) {
		return DefaultTotalVolume
	}
	return total
}

// ExtractTotalLots counts raw keys naming a table. No table at all yields DefaultTotalLots.
func ExtractTotalLots(raw map[string]any) int {
	n := 0
	for k := range raw {
		if strings.HasPrefix(k, "table_") {
			n++
		}
	}
	if n == 0 {
		return DefaultTotalLots
	}
	return n
}

// ExtractAveragePrice averages those of the first ten price candidates that are
// digit-only once dots are removed. No such candidate yields DefaultAveragePrice.
func ExtractAveragePrice(raw map[string]any) float64 {
	prices, ok := candidateStrings(raw["extracted_prices"])
	if !ok || len(prices) == 0 {
		return DefaultAveragePrice
	}
	if len(prices) > 10 {
		prices = prices[:10]
	}
	var (
		sum   float64
		count int
	)
	for _, p := range prices {
		if !isDigits(strings.ReplaceAll(p, ".", "")) {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return DefaultAveragePrice
		}
		sum += f
		count++
	}
	if count == 0 {
		return DefaultAveragePrice
	}
	return sum / float64(count)
}

// candidateStrings accepts the in-memory []string form and the decoded []any form. A
// non-string element makes the whole list unusable.
func candidateStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DisplayName turns "ATB_Mombasa" into "Atb Mombasa".
func DisplayName(center string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(center, "_", " "))
}

// ReportWeek returns the ISO week number and the calendar year of t.
func ReportWeek(t time.Time) (week, year int) {
	_, week = t.ISOWeek()
	return week, t.Year()
}

// MondayWeek is the Monday-based week of the year (00-53); days before the first Monday
// fall in week 0.
func MondayWeek(t time.Time) int {
	yday := t.YearDay() - 1
	wday := (int(t.Weekday()) + 6) % 7
	return (yday + 7 - wday) / 7
}

// ReportFileName returns "<center>_S<ww>_<yyyy>_consolidated.json" with the Monday-based
// week of t.
func ReportFileName(center string, t time.Time) string {
	return fmt.Sprintf("%s_S%02d_%d_consolidated.json", center, MondayWeek(t), t.Year())
}
