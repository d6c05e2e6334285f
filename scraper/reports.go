package scraper

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"teatrade-scraper/config"
	"teatrade-scraper/extract"
	"teatrade-scraper/models"
)

// Reports scrapes broker pages that list market reports and downloadable documents.
type Reports struct {
	base
}

// NewReports creates a report listing adapter.
func NewReports(source config.Source, deps Deps) *Reports {
	return &Reports{base: newBase(source, deps)}
}

func (a *Reports) Scrape(ctx context.Context) ([]*models.ScrapingResult, error) {
	return a.run(ctx, a.FetchAndExtract)
}

func (a *Reports) FetchAndExtract(ctx context.Context, t Target) *models.ScrapingResult {
	doc, err := a.deps.Static.Fetch(ctx, t.URL, a.deps.MaxRetries)
	if err != nil {
		return a.failure(t, err)
	}
	page, err := doc.Parse()
	if err != nil {
		return a.failure(t, err)
	}

	r := a.success(t, a.extractPage(page, t))
	r.SetMetadata("fetch_method", doc.Method)
	return r
}

func (a *Reports) extractPage(page *goquery.Document, t Target) map[string]any {
	source := t.Key
	if source == "" {
		source = a.source.Name
	}
	raw := map[string]any{
		"source":               source,
		"page_title":           extract.PageTitle(page),
		"extraction_timestamp": a.timestamp(),
	}

	a.step("tables", func() {
		for i, rows := range extract.Tables(page) {
			raw[tableKey(i)] = rows
		}
	})
	a.step("report links", func() {
		for i, l := range extract.ReportLinks(page, 10) {
			l.URL = extract.ResolveURL(t.URL, l.URL)
			raw[fmt.Sprintf("report_link_%d", i)] = l.Fields()
		}
	})
	a.step("download links", func() {
		for i, l := range extract.DownloadLinks(page, 5) {
			l.URL = extract.ResolveURL(t.URL, l.URL)
			raw[fmt.Sprintf("download_link_%d", i)] = l.Fields()
		}
	})
	a.step("sections", func() {
		for i, s := range extract.ReportSections(page, 5) {
			raw[fmt.Sprintf("report_section_%d", i)] = s
		}
	})
	return raw
}
