package services

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"teatrade-scraper/models"
)

// ToNumber coerces a decoded JSON value into a float. Anything non-numeric is 0.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// BuildDashboard aggregates decoded consolidated report documents per region. Regions
// and their centers are sorted by name; the period is the most common one seen.
func BuildDashboard(docs []map[string]any) *models.DashboardSummary {
	type acc struct {
		centers  map[string]struct{}
		reports  int
		offered  float64
		lots     int
		priceSum float64
	}
	byRegion := make(map[string]*acc)
	periods := make(map[string]int)

	for _, doc := range docs {
		meta, _ := doc["metadata"].(map[string]any)
		summary, _ := doc["summary"].(map[string]any)

		region, _ := meta["region"].(string)
		if region == "" {
			region = "Unknown"
		}
		a, ok := byRegion[region]
		if !ok {
			a = &acc{centers: make(map[string]struct{})}
			byRegion[region] = a
		}
		if name, _ := meta["display_name"].(string); name != "" {
			a.centers[name] = struct{}{}
		}
		if p, _ := meta["period"].(string); p != "" {
			periods[p]++
		}

		a.reports++
		a.offered += ToNumber(summary["total_offered_kg"])
		a.lots += int(ToNumber(summary["total_lots"]))
		a.priceSum += ToNumber(summary["auction_average_price"])
	}

	out := &models.DashboardSummary{Regions: make([]models.RegionSummary, 0, len(byRegion))}
	best := 0
	for p, n := range periods {
		if n > best || (n == best && p > out.Period) {
			out.Period, best = p, n
		}
	}

	for region, a := range byRegion {
		centers := make([]string, 0, len(a.centers))
		for c := range a.centers {
			centers = append(centers, c)
		}
		sort.Strings(centers)

		rs := models.RegionSummary{
			Region:         region,
			Centers:        centers,
			Reports:        a.reports,
			TotalOfferedKg: a.offered,
			TotalLots:      a.lots,
		}
		if a.reports > 0 {
			rs.AveragePrice = a.priceSum / float64(a.reports)
		}
		out.Regions = append(out.Regions, rs)
	}
	sort.Slice(out.Regions, func(i, j int) bool { return out.Regions[i].Region < out.Regions[j].Region })
	return out
}
