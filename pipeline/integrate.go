package pipeline

import (
	"context"
	"fmt"
	"strings"

	"teatrade-scraper/models"
	"teatrade-scraper/scraper"
	"teatrade-scraper/services"
)

// Integration counts what one integration pass produced.
type Integration struct {
	ReportsWritten int
	Lots           int
	Articles       int
	Violations     []string
	// Failures are per-result integration errors; the raw data of those results stays stored.
	Failures int
	// Skipped counts stored raw files that could not be decoded.
	Skipped int
}

// Integrate consolidates every successful non-news result into its report file and, when
// a sink is configured, its database rows. News results become deduplicated articles.
// The dashboard summary is rebuilt from all consolidated files afterwards.
func (o *Orchestrator) Integrate(ctx context.Context, results []*models.ScrapingResult) *Integration {
	log := o.c.Logger
	out := &Integration{Violations: []string{}}
	var articles []*models.NewsArticle

	for _, r := range results {
		if r == nil || !r.Success {
			continue
		}
		if r.DataType == "news" {
			articles = append(articles, services.NewsFromResult(r)...)
			continue
		}
		if err := o.integrateOne(ctx, r, out); err != nil {
			out.Failures++
			log.Error("[integrate] %s (%s): %v", r.AuctionCenter, r.DataType, err)
		}
	}

	articles = services.DedupeArticles(articles)
	out.Articles = len(articles)
	if o.c.Sink != nil && len(articles) > 0 {
		if err := o.c.Sink.InsertNewsArticles(ctx, articles); err != nil {
			out.Failures++
			log.Error("[integrate] %v", err)
		}
	}

	o.refreshDashboard()
	log.Info("[integrate] %d reports, %d lots, %d articles, %d violations, %d failures",
		out.ReportsWritten, out.Lots, out.Articles, len(out.Violations), out.Failures)
	return out
}

func (o *Orchestrator) integrateOne(ctx context.Context, r *models.ScrapingResult, out *Integration) error {
	log := o.c.Logger
	center := r.AuctionCenter
	report := o.c.Consolidator.Consolidate(r)

	violations, err := services.ValidateReport(report)
	if err != nil {
		return err
	}
	for _, v := range violations {
		log.Warn("[integrate] %s report violates contract: %s", center, v)
		out.Violations = append(out.Violations, center+": "+v)
	}

	name := services.ReportFileName(center, o.c.Consolidator.Now())
	if _, err := o.c.Reports.WriteReport(name, report); err != nil {
		return err
	}
	out.ReportsWritten++

	source := sourceOf(r)
	lots := o.c.Cleaner.Lots(source, r)
	out.Lots += len(lots)

	r.ProcessedData = map[string]any{
		"consolidated_file":     name,
		"period":                report.Metadata.Period,
		"total_offered_kg":      report.Summary.TotalOfferedKg,
		"total_lots":            report.Summary.TotalLots,
		"auction_average_price": report.Summary.AuctionAveragePrice,
		"lots_extracted":        len(lots),
	}
	if _, err := o.c.Warehouse.StoreProcessed(r); err != nil {
		log.Error("[integrate] Processed store failed for %s: %v", center, err)
	}

	if o.c.Sink == nil {
		return nil
	}
	return o.writeRecords(ctx, source, center, report, lots)
}

func (o *Orchestrator) writeRecords(ctx context.Context, source, center string, report *models.ConsolidatedReport, lots []*models.AuctionLot) error {
	sink := o.c.Sink
	if err := sink.EnsureCentre(ctx, services.CentreFromReport(center, report)); err != nil {
		return err
	}
	if err := sink.UpsertGardens(ctx, services.Gardens(lots)); err != nil {
		return err
	}
	if err := sink.UpsertAuctionLots(ctx, lots); err != nil {
		return err
	}
	row, err := services.MarketReportFromReport(source, center, report)
	if err != nil {
		return err
	}
	if err := sink.UpsertMarketReport(ctx, row); err != nil {
		return err
	}
	return sink.UpsertWeeklyPriceAnalytic(ctx, services.WeeklyAnalyticFromReport(center, report))
}

func (o *Orchestrator) refreshDashboard() {
	docs, skipped, err := o.c.Reports.LoadAll()
	if err != nil {
		o.c.Logger.Error("[integrate] Dashboard skipped: %v", err)
		return
	}
	if skipped > 0 {
		o.c.Logger.Warn("[integrate] Dashboard built without %d unreadable reports", skipped)
	}
	path, err := o.c.Reports.WriteDashboard(services.BuildDashboard(docs))
	if err != nil {
		o.c.Logger.Error("[integrate] Dashboard write failed: %v", err)
		return
	}
	o.c.Logger.Info("[integrate] Dashboard summary of %d reports written to %s", len(docs), path)
}

// sourceOf names the source of a result, falling back to its center for results stored
// before the source was recorded.
func sourceOf(r *models.ScrapingResult) string {
	if s, ok := r.Metadata[scraper.SourceKey].(string); ok && s != "" {
		return s
	}
	return strings.ToLower(r.AuctionCenter)
}

// BuildDataset writes the analysis dataset of every stored raw result.
func (o *Orchestrator) BuildDataset() (string, error) {
	results, _, err := o.c.Warehouse.LoadRaw()
	if err != nil {
		return "", err
	}
	path, err := o.c.Warehouse.BuildDataset(results)
	if err != nil {
		return "", fmt.Errorf("pipeline: dataset: %w", err)
	}
	return path, nil
}

// Reintegrate consolidates every stored raw result again. Unreadable raw files are
// counted in Skipped.
func (o *Orchestrator) Reintegrate(ctx context.Context) (*Integration, error) {
	results, skipped, err := o.c.Warehouse.LoadRaw()
	if err != nil {
		return nil, fmt.Errorf("pipeline: reintegrate: %w", err)
	}
	o.c.Logger.Info("[integrate] Re-integrating %d stored results (%d unreadable skipped)", len(results), skipped)
	out := o.Integrate(ctx, results)
	out.Skipped = skipped
	return out, nil
}
