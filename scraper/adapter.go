// Package scraper turns configured auction sources into ScrapingResults. Each extraction
// family (tabular, dropdown, reports, news) is an Adapter built from a config.Source.
package scraper

import (
	"context"
	"fmt"
	"time"

	"teatrade-scraper/config"
	"teatrade-scraper/fetch"
	"teatrade-scraper/models"
	"teatrade-scraper/utils"
)

// Adapter scrapes every page of one source.
type Adapter interface {
	Name() string
	Scrape(ctx context.Context) ([]*models.ScrapingResult, error)
}

// DrivenFetcher is what adapters need from the browser-driven fetch path.
type DrivenFetcher interface {
	fetch.Fetcher
	fetch.SessionRunner
}

// Deps are the collaborators shared by all adapters. Driven may be nil, in which case
// families that need a browser fail their targets.
type Deps struct {
	Static     fetch.Fetcher
	Driven     DrivenFetcher
	Pacer      utils.Pacer
	Logger     *utils.Logger
	MaxRetries int
	DelayMin   time.Duration
	DelayMax   time.Duration
	// DrivenFallback enables the browser retry for tabular sources that opt in.
	DrivenFallback bool
	Now            func() time.Time
}

// Target is one page to retrieve.
type Target struct {
	URL           string
	AuctionCenter string
	DataType      string
	Country       string
	Key           string
	// Center is the selector option to choose on dropdown pages.
	Center string
}

// base carries what every family shares: the source, pacing and step isolation.
type base struct {
	source config.Source
	deps   Deps
}

func newBase(source config.Source, deps Deps) base {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if source.MaxRetries > 0 {
		deps.MaxRetries = source.MaxRetries
	}
	if deps.MaxRetries < 1 {
		deps.MaxRetries = 1
	}
	return base{source: source, deps: deps}
}

func (b *base) Name() string { return b.source.Name }

// targets expands endpoints into targets; dropdown sources get one per center.
func (b *base) targets() []Target {
	var out []Target
	centers := b.source.Centers
	if len(centers) == 0 {
		centers = []string{""}
	}
	for _, center := range centers {
		for _, e := range b.source.Endpoints {
			country := e.Country
			if country == "" {
				country = b.source.Country
			}
			out = append(out, Target{
				URL:           b.source.URLFor(e),
				AuctionCenter: b.source.CenterFor(e, center),
				DataType:      e.DataType,
				Country:       country,
				Key:           e.Key,
				Center:        center,
			})
		}
	}
	return out
}

// run fetches every target in order with a randomized pause between two targets.
func (b *base) run(ctx context.Context, fetchOne func(context.Context, Target) *models.ScrapingResult) ([]*models.ScrapingResult, error) {
	targets := b.targets()
	min, max := b.source.DelaySeconds.Range(b.deps.DelayMin, b.deps.DelayMax)

	b.deps.Logger.Info("[%s] Scraping %d pages", b.source.Name, len(targets))

	results := make([]*models.ScrapingResult, 0, len(targets))
	for i, t := range targets {
		if i > 0 {
			if err := b.deps.Pacer.Delay(ctx, min, max); err != nil {
				return results, err
			}
		}
		r := fetchOne(ctx, t)
		if r.Success {
			b.deps.Logger.Info("[%s] %s (%s): ok", b.source.Name, t.AuctionCenter, t.DataType)
		} else {
			b.deps.Logger.Warn("[%s] %s (%s): %s", b.source.Name, t.AuctionCenter, t.DataType, r.ErrorMessage)
		}
		results = append(results, r)
		if err := ctx.Err(); err != nil {
			return results, err
		}
	}
	return results, nil
}

// step runs one extraction step, logging instead of propagating a panic so that the
// remaining steps still contribute to the raw data.
func (b *base) step(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.deps.Logger.Debug("[%s] extraction step %s failed: %v", b.source.Name, name, r)
		}
	}()
	fn()
}

// SourceKey is the metadata entry naming the source that produced a result.
const SourceKey = "source"

func (b *base) failure(t Target, err error) *models.ScrapingResult {
	r := models.NewFailure(t.URL, t.AuctionCenter, t.DataType, b.deps.Now(), err.Error())
	r.SetMetadata(SourceKey, b.source.Name)
	return r
}

func (b *base) success(t Target, raw map[string]any) *models.ScrapingResult {
	r := models.NewSuccess(t.URL, t.AuctionCenter, t.DataType, b.deps.Now(), raw)
	r.SetMetadata(SourceKey, b.source.Name)
	return r
}

func (b *base) timestamp() string {
	return b.deps.Now().Format(time.RFC3339)
}

func tableKey(i int) string {
	return fmt.Sprintf("table_%d", i)
}
