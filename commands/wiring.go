package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"teatrade-scraper/config"
	"teatrade-scraper/fetch"
	"teatrade-scraper/pipeline"
	"teatrade-scraper/scraper"
	"teatrade-scraper/services"
	"teatrade-scraper/storage"
	"teatrade-scraper/utils"
)

// app holds everything a command needs; close releases the database handle.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
	orch   *pipeline.Orchestrator
	sink   *storage.PostgresWriter
}

func (a *app) close() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Warn("[db] Close failed: %v", err)
		}
	}
}

func loadConfig() (*config.Config, *utils.Logger) {
	cfg := config.Load()
	if sourcesFile != "" {
		cfg.SourcesFile = sourcesFile
	}
	logger := utils.NewLoggerWith(utils.LoggerOptions{Level: utils.ParseLevel(cfg.LogLevel), Color: cfg.LogColor})
	return cfg, logger
}

func loadSources(cfg *config.Config, only []string) ([]config.Source, error) {
	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}
	if len(only) == 0 {
		return sources, nil
	}
	picked := make([]config.Source, 0, len(only))
	for _, s := range sources {
		if slices.Contains(only, s.Name) {
			picked = append(picked, s)
		}
	}
	if len(picked) == 0 {
		return nil, fmt.Errorf("no configured source matches %s", strings.Join(only, ", "))
	}
	return picked, nil
}

type appOptions struct {
	only     []string
	database bool
	scrapers bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, logger := loadConfig()
	a := &app{cfg: cfg, logger: logger}

	warehouse, err := storage.NewWarehouse(cfg.WarehousePath, logger)
	if err != nil {
		return nil, err
	}
	reports, err := storage.NewReportDir(cfg.ConsolidatedPath, logger)
	if err != nil {
		return nil, err
	}

	c := pipeline.Components{
		Warehouse:    warehouse,
		Reports:      reports,
		Consolidator: services.NewConsolidator(logger, nil),
		Cleaner:      services.NewCleaner(logger),
		Insights:     services.NewInsightService(logger),
		Health:       services.NewHealthMonitor(logger, nil, nil),
		Logger:       logger,
	}

	if opts.database && cfg.PostgresEnabled {
		pw, err := storage.NewPostgresWriter(ctx, cfg.DSN(), cfg.PostgresPings, logger)
		if err != nil {
			logger.Warn("[db] PostgreSQL unavailable, continuing with file sinks only: %v", err)
		} else {
			a.sink = pw
			c.Sink = pw
		}
	}

	if opts.scrapers {
		sources, err := loadSources(cfg, opts.only)
		if err != nil {
			a.close()
			return nil, err
		}
		adapters, err := scraper.BuildAdapters(sources, scraperDeps(cfg, logger))
		if err != nil {
			a.close()
			return nil, err
		}
		c.Adapters = adapters
	}

	a.orch = pipeline.New(c, pipeline.Options{Cooldown: cfg.SourceCooldown})
	return a, nil
}

func scraperDeps(cfg *config.Config, logger *utils.Logger) scraper.Deps {
	pacer := utils.NewHumanPacer(logger)
	static := fetch.NewStaticFetcher(pacer, logger, fetch.StaticOptions{
		Timeout: cfg.HTTPTimeout,
		Stealth: cfg.StealthTransport,
	})
	driven := fetch.NewDrivenFetcher(
		fetch.ChromeFactory(fetch.ChromeOptions{ExecPath: cfg.ChromeBin, Headless: cfg.Headless}, logger),
		pacer, logger,
		fetch.DrivenOptions{
			ReadyTimeout:      cfg.ReadyTimeout,
			PauseMin:          cfg.PagePauseMin,
			PauseMax:          cfg.PagePauseMax,
			RetryDelay:        cfg.NavigationDelay,
			NavigationTimeout: cfg.NavigationTimeout,
			SelectWait:        cfg.SelectWait,
		})

	return scraper.Deps{
		Static:         static,
		Driven:         driven,
		Pacer:          pacer,
		Logger:         logger,
		MaxRetries:     cfg.MaxRetries,
		DelayMin:       cfg.PageDelayMin,
		DelayMax:       cfg.PageDelayMax,
		DrivenFallback: cfg.DrivenFallback,
	}
}
