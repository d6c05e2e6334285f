package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"teatrade-scraper/config"
	"teatrade-scraper/extract"
	"teatrade-scraper/models"
)

// News scrapes tea industry news listings.
type News struct {
	base
}

// NewNews creates a news adapter.
func NewNews(source config.Source, deps Deps) *News {
	return &News{base: newBase(source, deps)}
}

func (a *News) Scrape(ctx context.Context) ([]*models.ScrapingResult, error) {
	return a.run(ctx, a.FetchAndExtract)
}

func (a *News) FetchAndExtract(ctx context.Context, t Target) *models.ScrapingResult {
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

func (a *News) extractPage(page *goquery.Document, t Target) map[string]any {
	raw := map[string]any{
		"source":               t.Key,
		"country":              t.Country,
		"page_title":           extract.PageTitle(page),
		"extraction_timestamp": a.timestamp(),
	}

	a.step("headlines", func() {
		seen := make(map[string]bool)
		articles := make([]map[string]any, 0)
		for _, h := range extract.Headlines(page, t.URL, 10) {
			if seen[h.Title] {
				continue
			}
			seen[h.Title] = true
			articles = append(articles, map[string]any{
				"title":   h.Title,
				"url":     h.URL,
				"country": t.Country,
			})
		}
		raw["articles"] = articles
	})
	a.step("summaries", func() {
		raw["summaries"] = extract.Articles(page, 5)
	})
	return raw
}
