package storage

import (
	"context"

	"teatrade-scraper/models"
)

// RecordSink is the interface any relational backend must satisfy. Every write is an
// upsert or a conflict-ignoring insert keyed by the entity's natural key.
type RecordSink interface {
	EnsureCentre(ctx context.Context, centre *models.AuctionCentre) error
	UpsertGardens(ctx context.Context, names []string) error
	UpsertAuctionLots(ctx context.Context, lots []*models.AuctionLot) error
	UpsertMarketReport(ctx context.Context, report *models.MarketReport) error
	UpsertWeeklyPriceAnalytic(ctx context.Context, analytic *models.WeeklyPriceAnalytic) error
	InsertNewsArticles(ctx context.Context, articles []*models.NewsArticle) error
	InsertSystemHealth(ctx context.Context, health *models.SystemHealth) error
	InsertDataQualityLog(ctx context.Context, log *models.DataQualityLog) error
	Close() error
}

// ResultStore persists scraping results as files. Loaders skip files they cannot decode
// and report how many they skipped.
type ResultStore interface {
	StoreRaw(r *models.ScrapingResult) (string, error)
	StoreProcessed(r *models.ScrapingResult) (string, error)
	LoadRaw() (results []*models.ScrapingResult, skipped int, err error)
	BuildDataset(results []*models.ScrapingResult) (string, error)
}

// ReportStore holds the consolidated documents read by the dashboard.
type ReportStore interface {
	WriteReport(name string, report *models.ConsolidatedReport) (string, error)
	WriteDashboard(summary *models.DashboardSummary) (string, error)
	LoadAll() (docs []map[string]any, skipped int, err error)
}
