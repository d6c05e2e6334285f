package scraper

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"

	"teatrade-scraper/config"
	"teatrade-scraper/extract"
	"teatrade-scraper/fetch"
	"teatrade-scraper/models"
)

// CenterSelectors are the naming heuristics used to find the center select control.
var CenterSelectors = []string{
	"select[name*='center']",
	"select[id*='center']",
	"select[name*='centre']",
	"select[id*='centre']",
}

var errNoBrowser = errors.New("no browser configured")

// Dropdown scrapes browser-rendered pages that expose one auction center at a time
// behind a select control.
type Dropdown struct {
	base
}

// NewDropdown creates a dropdown adapter.
func NewDropdown(source config.Source, deps Deps) *Dropdown {
	return &Dropdown{base: newBase(source, deps)}
}

func (a *Dropdown) Scrape(ctx context.Context) ([]*models.ScrapingResult, error) {
	return a.run(ctx, a.FetchAndExtract)
}

// FetchAndExtract navigates to the page, selects the target center when a selector
// exists, and extracts the rendered markup.
func (a *Dropdown) FetchAndExtract(ctx context.Context, t Target) *models.ScrapingResult {
	if a.deps.Driven == nil {
		return a.failure(t, errNoBrowser)
	}

	var (
		html     string
		selected bool
	)
	err := a.deps.Driven.WithSession(ctx, func(s *fetch.Session) error {
		if err := s.Navigate(ctx, t.URL, a.deps.MaxRetries); err != nil {
			return err
		}
		if t.Center != "" {
			var serr error
			if selected, serr = s.SelectMatching(ctx, CenterSelectors, t.Center); serr != nil {
				a.deps.Logger.Debug("[%s] center selection failed: %v", a.source.Name, serr)
			}
		}
		var herr error
		html, herr = s.HTML(ctx)
		return herr
	})
	if err != nil {
		return a.failure(t, err)
	}

	doc := &fetch.Document{URL: t.URL, HTML: html, Method: fetch.MethodDriven}
	page, err := doc.Parse()
	if err != nil {
		return a.failure(t, err)
	}

	r := a.success(t, a.extractPage(page, t))
	r.SetMetadata("fetch_method", fetch.MethodDriven)
	r.SetMetadata("center_selected", selected)
	return r
}

func (a *Dropdown) extractPage(page *goquery.Document, t Target) map[string]any {
	raw := map[string]any{
		"auction_center":       t.Center,
		"data_type":            t.DataType,
		"extraction_timestamp": a.timestamp(),
	}

	a.step("tables", func() {
		for i, rows := range extract.Tables(page) {
			if len(rows) > 0 {
				raw[tableKey(i)] = rows
			}
		}
	})
	a.step("content", func() {
		content := extract.BodyText(page)
		raw["page_content"] = content
		raw["extracted_prices"] = extract.NumericCandidates(content, extract.PricePattern)
		raw["extracted_volumes"] = extract.NumericCandidates(content, extract.VolumePattern)
	})
	return raw
}
