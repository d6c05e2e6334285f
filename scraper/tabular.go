package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"teatrade-scraper/config"
	"teatrade-scraper/extract"
	"teatrade-scraper/fetch"
	"teatrade-scraper/models"
)

// Tabular scrapes static pages that publish their data as HTML tables.
type Tabular struct {
	base
}

// NewTabular creates a tabular adapter.
func NewTabular(source config.Source, deps Deps) *Tabular {
	return &Tabular{base: newBase(source, deps)}
}

func (a *Tabular) Scrape(ctx context.Context) ([]*models.ScrapingResult, error) {
	return a.run(ctx, a.FetchAndExtract)
}

func (a *Tabular) fallbackEnabled() bool {
	return a.source.DrivenFallback && a.deps.DrivenFallback && a.deps.Driven != nil
}

// FetchAndExtract retrieves one page statically. When the source opts in, a failed or
// empty static page is retried through the browser.
func (a *Tabular) FetchAndExtract(ctx context.Context, t Target) *models.ScrapingResult {
	doc, err := a.deps.Static.Fetch(ctx, t.URL, a.deps.MaxRetries)
	if err != nil {
		if !a.fallbackEnabled() {
			return a.failure(t, err)
		}
		a.deps.Logger.Debug("[%s] static fetch failed, using browser: %v", a.source.Name, err)
		if doc, err = a.deps.Driven.Fetch(ctx, t.URL, a.deps.MaxRetries); err != nil {
			return a.failure(t, err)
		}
	}

	raw, err := a.extract(doc)
	if err != nil {
		return a.failure(t, err)
	}

	method := doc.Method
	if !extract.IsMeaningful(raw) && method == fetch.MethodStatic && a.fallbackEnabled() {
		a.deps.Logger.Debug("[%s] static page %s has no data, using browser", a.source.Name, t.URL)
		if driven, derr := a.deps.Driven.Fetch(ctx, t.URL, a.deps.MaxRetries); derr == nil {
			if draw, xerr := a.extract(driven); xerr == nil && extract.IsMeaningful(draw) {
				raw, method = draw, driven.Method
			}
		}
	}

	r := a.success(t, raw)
	r.SetMetadata("fetch_method", method)
	return r
}

func (a *Tabular) extract(doc *fetch.Document) (map[string]any, error) {
	page, err := doc.Parse()
	if err != nil {
		return nil, err
	}
	return a.extractPage(page), nil
}

func (a *Tabular) extractPage(page *goquery.Document) map[string]any {
	raw := map[string]any{
		"page_title":           extract.PageTitle(page),
		"extraction_timestamp": a.timestamp(),
	}

	a.step("tables", func() {
		for i, rows := range extract.Tables(page) {
			raw[tableKey(i)] = rows
		}
	})
	a.step("numeric", func() {
		text := extract.PageText(page)
		raw["extracted_prices"] = extract.NumericCandidates(text, extract.PricePattern)
		raw["extracted_volumes"] = extract.NumericCandidates(text, extract.VolumePattern)
	})
	return raw
}
