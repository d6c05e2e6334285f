// Package pipeline sequences the source adapters of one run and hands their results to
// the storage and consolidation stages.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"teatrade-scraper/models"
	"teatrade-scraper/scraper"
	"teatrade-scraper/services"
	"teatrade-scraper/storage"
	"teatrade-scraper/utils"
)

// DefaultCooldown is the pause between two sources.
const DefaultCooldown = 300 * time.Second

// Components are the collaborators of an Orchestrator. Sink may be nil when no database
// is configured.
type Components struct {
	Adapters     []scraper.Adapter
	Warehouse    storage.ResultStore
	Reports      storage.ReportStore
	Sink         storage.RecordSink
	Consolidator *services.Consolidator
	Cleaner      *services.Cleaner
	Insights     *services.InsightService
	Health       *services.HealthMonitor
	Logger       *utils.Logger
}

// Options tune a run. Zero values select the defaults.
type Options struct {
	Cooldown time.Duration
	Sleep    utils.SleepFunc
	Now      func() time.Time
	NewID    func() string
	// Summary receives the run table; nil prints to stdout.
	Summary io.Writer
}

// Orchestrator runs every adapter in sequence, then integrates the collected results.
type Orchestrator struct {
	c    Components
	opts Options
}

// New creates an Orchestrator.
func New(c Components, opts Options) *Orchestrator {
	if opts.Cooldown == 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Sleep == nil {
		opts.Sleep = utils.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Summary == nil {
		opts.Summary = os.Stdout
	}
	return &Orchestrator{c: c, opts: opts}
}

// Run executes one full collection cycle. Adapter errors and panics are recorded and the
// run continues; only cancellation of ctx ends it early, in which case the results
// collected so far are still integrated.
func (o *Orchestrator) Run(ctx context.Context) (*services.RunReport, error) {
	log := o.c.Logger
	report := &services.RunReport{RunID: o.opts.NewID(), StartedAt: o.opts.Now()}
	log.Info("=== Tea auction run %s starting: %d sources ===", report.RunID, len(o.c.Adapters))

	var all []*models.ScrapingResult
	var runErr error
	for i, a := range o.c.Adapters {
		if i > 0 {
			log.Info("[pipeline] Cooling down %v before %s", o.opts.Cooldown, a.Name())
			if err := o.opts.Sleep(ctx, o.opts.Cooldown); err != nil {
				runErr = err
				break
			}
		}
		results, stat := o.runAdapter(ctx, a)
		report.Sources = append(report.Sources, stat)
		all = append(all, results...)
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
	}

	for _, r := range all {
		if !r.Success {
			continue
		}
		if _, err := o.c.Warehouse.StoreRaw(r); err != nil {
			log.Error("[pipeline] Raw store failed for %s: %v", r.AuctionCenter, err)
		}
	}

	// Integration keeps going on a cancelled run so collected data is not lost.
	integrateCtx := context.WithoutCancel(ctx)
	summary := o.Integrate(integrateCtx, all)
	report.ReportsWritten = summary.ReportsWritten
	report.Violations = len(summary.Violations)

	if path, err := o.c.Warehouse.BuildDataset(all); err != nil {
		log.Error("[pipeline] Dataset build failed: %v", err)
	} else {
		log.Info("[pipeline] Analysis dataset written to %s", path)
	}

	report.Duration = o.opts.Now().Sub(report.StartedAt)
	o.recordRun(integrateCtx, report, summary.Violations)
	o.c.Insights.Print(o.opts.Summary, report)

	if runErr != nil {
		return report, fmt.Errorf("pipeline: run %s stopped: %w", report.RunID, runErr)
	}
	return report, nil
}

// runAdapter isolates one adapter. An adapter that panics or returns an error counts as
// an empty result set. When the error comes from cancellation of ctx the pages fetched
// before it are kept.
func (o *Orchestrator) runAdapter(ctx context.Context, a scraper.Adapter) (results []*models.ScrapingResult, stat services.SourceStat) {
	log := o.c.Logger
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("[pipeline] %s panicked: %v", a.Name(), rec)
			results = nil
			stat = services.SourceStat{Name: a.Name(), Err: fmt.Sprintf("adapter panicked: %v", rec)}
		}
	}()

	log.Info("[pipeline] Running %s", a.Name())
	results, err := a.Scrape(ctx)
	if err != nil {
		log.Error("[pipeline] %s failed: %v", a.Name(), err)
		if ctx.Err() == nil {
			results = nil
		}
	}
	stat = o.c.Insights.SourceStat(a.Name(), results)
	if err != nil {
		stat.Err = err.Error()
	}
	log.Info("[pipeline] %s: %d successful, %d failed", a.Name(), stat.OK, stat.Failed)
	return results, stat
}

func (o *Orchestrator) recordRun(ctx context.Context, report *services.RunReport, violations []string) {
	health := o.c.Health.Capture(ctx, report)
	quality := services.QualityLog(report, o.opts.Now(), violations)
	log := o.c.Logger
	log.Info("[pipeline] Run %s: %.1f%% of %d results successful", report.RunID, quality.SuccessRate, quality.TotalRecords)

	if o.c.Sink == nil {
		return
	}
	if err := o.c.Sink.InsertSystemHealth(ctx, health); err != nil {
		log.Error("[pipeline] %v", err)
	}
	if err := o.c.Sink.InsertDataQualityLog(ctx, quality); err != nil {
		log.Error("[pipeline] %v", err)
	}
}
