package models

// ConsolidatedReport is the fixed weekly summary per auction center consumed by the
// dashboard and the database loaders.
type ConsolidatedReport struct {
	Metadata           ReportMetadata `json:"metadata"`
	Summary            ReportSummary  `json:"summary"`
	MarketIntelligence map[string]any `json:"market_intelligence"`
	VolumeAnalysis     map[string]any `json:"volume_analysis"`
	PriceAnalysis      map[string]any `json:"price_analysis"`
}

type ReportMetadata struct {
	Location    string `json:"location"`
	DisplayName string `json:"display_name"`
	Region      string `json:"region"`
	Period      string `json:"period"`
	WeekNumber  int    `json:"week_number"`
	Year        int    `json:"year"`
	ReportTitle string `json:"report_title"`
	DataQuality string `json:"data_quality"`
	Currency    string `json:"currency"`
	SourceURL   string `json:"source_url"`
	DataType    string `json:"data_type"`
}

// ReportSummary values are best-effort approximations; they always carry a value.
type ReportSummary struct {
	TotalOfferedKg        float64 `json:"total_offered_kg"`
	TotalSoldKg           float64 `json:"total_sold_kg"`
	TotalLots             int     `json:"total_lots"`
	AuctionAveragePrice   float64 `json:"auction_average_price"`
	PercentSold           float64 `json:"percent_sold"`
	PercentUnsold         float64 `json:"percent_unsold"`
	CommentarySynthesized string  `json:"commentary_synthesized"`
}

// RegionSummary is one row of the dashboard summary, aggregated per region.
type RegionSummary struct {
	Region         string   `json:"region"`
	Centers        []string `json:"centers"`
	Reports        int      `json:"reports"`
	TotalOfferedKg float64  `json:"total_offered_kg"`
	TotalLots      int      `json:"total_lots"`
	AveragePrice   float64  `json:"average_price"`
}

// DashboardSummary is the document the dashboard front-end reads next to the consolidated files.
type DashboardSummary struct {
	Period  string          `json:"period"`
	Regions []RegionSummary `json:"regions"`
}
