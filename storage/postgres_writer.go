package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"teatrade-scraper/models"
	"teatrade-scraper/utils"
)

// PostgresWriter persists consolidated records to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

var _ RecordSink = (*PostgresWriter)(nil)

// NewPostgresWriter opens a connection to PostgreSQL, waits for it to answer up to pings
// times, runs schema migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, pings int, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: pings, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw, err := NewPostgresWriterFromDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return pw, nil
}

// NewPostgresWriterFromDB wraps an open handle and runs the schema migrations.
func NewPostgresWriterFromDB(ctx context.Context, db *sql.DB) (*PostgresWriter, error) {
	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS auction_centres (
			id          SERIAL PRIMARY KEY,
			centre_name TEXT        UNIQUE NOT NULL,
			region      TEXT        NOT NULL DEFAULT 'Unknown',
			currency    VARCHAR(3)  NOT NULL DEFAULT 'USD',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS gardens (
			id          SERIAL PRIMARY KEY,
			garden_name TEXT        UNIQUE NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS auction_lots (
			id           SERIAL PRIMARY KEY,
			source       VARCHAR(50)    NOT NULL,
			centre_name  TEXT           NOT NULL,
			lot_no       TEXT           NOT NULL,
			garden_name  TEXT           NOT NULL DEFAULT '',
			grade        TEXT           NOT NULL DEFAULT '',
			quantity     NUMERIC(12,2)  NOT NULL DEFAULT 0,
			price        NUMERIC(12,2)  NOT NULL DEFAULT 0,
			currency     VARCHAR(3)     NOT NULL DEFAULT 'USD',
			auction_date DATE           NOT NULL,
			broker       TEXT           NOT NULL DEFAULT '',
			warehouse    TEXT           NOT NULL DEFAULT '',
			source_url   TEXT           NOT NULL DEFAULT '',
			updated_at   TIMESTAMPTZ    NOT NULL DEFAULT NOW(),
			UNIQUE (source, centre_name, lot_no, auction_date)
		);

		CREATE TABLE IF NOT EXISTS market_reports (
			id                    SERIAL PRIMARY KEY,
			source                VARCHAR(50)   NOT NULL,
			centre_name           TEXT          NOT NULL,
			region                TEXT          NOT NULL,
			currency              VARCHAR(3)    NOT NULL,
			week_number           INT           NOT NULL,
			year                  INT           NOT NULL,
			total_offered_kg      NUMERIC(14,2) NOT NULL,
			total_sold_kg         NUMERIC(14,2) NOT NULL,
			total_lots            INT           NOT NULL,
			auction_average_price NUMERIC(12,2) NOT NULL,
			percent_sold          NUMERIC(5,2)  NOT NULL,
			percent_unsold        NUMERIC(5,2)  NOT NULL,
			data_quality          TEXT          NOT NULL,
			payload               JSONB         NOT NULL,
			updated_at            TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			UNIQUE (source, centre_name, week_number, year)
		);

		CREATE TABLE IF NOT EXISTS weekly_price_analytics (
			id            SERIAL PRIMARY KEY,
			centre_name   TEXT          NOT NULL,
			week_number   INT           NOT NULL,
			year          INT           NOT NULL,
			currency      VARCHAR(3)    NOT NULL,
			average_price NUMERIC(12,2) NOT NULL,
			total_volume  NUMERIC(14,2) NOT NULL,
			total_lots    INT           NOT NULL,
			updated_at    TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			UNIQUE (centre_name, week_number, year)
		);

		CREATE TABLE IF NOT EXISTS news_articles (
			id           SERIAL PRIMARY KEY,
			title        TEXT        NOT NULL,
			source       TEXT        NOT NULL,
			url          TEXT        NOT NULL DEFAULT '',
			summary      TEXT        NOT NULL DEFAULT '',
			country      TEXT        NOT NULL DEFAULT '',
			category     TEXT        NOT NULL DEFAULT '',
			publish_date DATE        NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (title, source, publish_date)
		);

		CREATE TABLE IF NOT EXISTS system_health (
			id               SERIAL PRIMARY KEY,
			run_id           UUID         NOT NULL,
			captured_at      TIMESTAMPTZ  NOT NULL,
			cpu_percent      NUMERIC(5,2) NOT NULL,
			memory_percent   NUMERIC(5,2) NOT NULL,
			sources_ok       INT          NOT NULL,
			sources_failed   INT          NOT NULL,
			results_ok       INT          NOT NULL,
			results_failed   INT          NOT NULL,
			duration_seconds NUMERIC(10,2) NOT NULL
		);

		CREATE TABLE IF NOT EXISTS data_quality_logs (
			id                SERIAL PRIMARY KEY,
			run_id            UUID         NOT NULL,
			logged_at         TIMESTAMPTZ  NOT NULL,
			total_records     INT          NOT NULL,
			success_rate      NUMERIC(5,2) NOT NULL,
			validation_errors TEXT[]       NOT NULL DEFAULT '{}'
		);

		CREATE INDEX IF NOT EXISTS idx_lots_centre_date ON auction_lots(centre_name, auction_date);
		CREATE INDEX IF NOT EXISTS idx_lots_garden      ON auction_lots(garden_name);
		CREATE INDEX IF NOT EXISTS idx_reports_week     ON market_reports(year, week_number);
		CREATE INDEX IF NOT EXISTS idx_news_date        ON news_articles(publish_date);
	`)
	return err
}

// EnsureCentre inserts the centre or refreshes its region and currency.
func (pw *PostgresWriter) EnsureCentre(ctx context.Context, c *models.AuctionCentre) error {
	_, err := pw.db.ExecContext(ctx, `
		INSERT INTO auction_centres (centre_name, region, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (centre_name) DO UPDATE
		SET region = EXCLUDED.region, currency = EXCLUDED.currency
	`, c.CentreName, c.Region, c.Currency)
	if err != nil {
		return fmt.Errorf("postgres: ensure centre %s: %w", c.CentreName, err)
	}
	return nil
}

// UpsertGardens records garden names that are not yet known.
func (pw *PostgresWriter) UpsertGardens(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	valueStrings := make([]string, 0, len(names))
	valueArgs := make([]interface{}, 0, len(names))
	for i, n := range names {
		valueStrings = append(valueStrings, fmt.Sprintf("($%d)", i+1))
		valueArgs = append(valueArgs, n)
	}
	query := fmt.Sprintf(`
		INSERT INTO gardens (garden_name)
		VALUES %s
		ON CONFLICT (garden_name) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert gardens: %w", err)
	}
	return nil
}

// UpsertAuctionLots batch-upserts lots in a single transaction.
func (pw *PostgresWriter) UpsertAuctionLots(ctx context.Context, lots []*models.AuctionLot) error {
	if len(lots) == 0 {
		return nil
	}
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin lots: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(lots); i += batchSize {
		end := i + batchSize
		if end > len(lots) {
			end = len(lots)
		}
		if err := insertLotBatch(ctx, tx, lots[i:end]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("postgres: upsert lots: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit lots: %w", err)
	}
	return nil
}

func insertLotBatch(ctx context.Context, tx *sql.Tx, batch []*models.AuctionLot) error {
	const cols = 12
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.Source, l.CentreName, l.LotNo, l.GardenName, l.Grade, l.Quantity,
			l.Price, l.Currency, l.AuctionDate, l.Broker, l.Warehouse, l.SourceURL)
	}

	query := fmt.Sprintf(`
		INSERT INTO auction_lots (source, centre_name, lot_no, garden_name, grade, quantity,
			price, currency, auction_date, broker, warehouse, source_url)
		VALUES %s
		ON CONFLICT (source, centre_name, lot_no, auction_date) DO UPDATE
		SET garden_name = EXCLUDED.garden_name, grade = EXCLUDED.grade,
			quantity = EXCLUDED.quantity, price = EXCLUDED.price, updated_at = NOW()
	`, strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// UpsertMarketReport stores one consolidated report per source, centre and week.
func (pw *PostgresWriter) UpsertMarketReport(ctx context.Context, r *models.MarketReport) error {
	_, err := pw.db.ExecContext(ctx, `
		INSERT INTO market_reports (source, centre_name, region, currency, week_number, year,
			total_offered_kg, total_sold_kg, total_lots, auction_average_price,
			percent_sold, percent_unsold, data_quality, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (source, centre_name, week_number, year) DO UPDATE
		SET total_offered_kg = EXCLUDED.total_offered_kg, total_sold_kg = EXCLUDED.total_sold_kg,
			total_lots = EXCLUDED.total_lots, auction_average_price = EXCLUDED.auction_average_price,
			percent_sold = EXCLUDED.percent_sold, percent_unsold = EXCLUDED.percent_unsold,
			data_quality = EXCLUDED.data_quality, payload = EXCLUDED.payload, updated_at = NOW()
	`, r.Source, r.CentreName, r.Region, r.Currency, r.WeekNumber, r.Year,
		r.TotalOfferedKg, r.TotalSoldKg, r.TotalLots, r.AuctionAveragePrice,
		r.PercentSold, r.PercentUnsold, r.DataQuality, string(r.Payload))
	if err != nil {
		return fmt.Errorf("postgres: upsert market report %s: %w", r.CentreName, err)
	}
	return nil
}

func (pw *PostgresWriter) UpsertWeeklyPriceAnalytic(ctx context.Context, a *models.WeeklyPriceAnalytic) error {
	_, err := pw.db.ExecContext(ctx, `
		INSERT INTO weekly_price_analytics (centre_name, week_number, year, currency,
			average_price, total_volume, total_lots)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (centre_name, week_number, year) DO UPDATE
		SET currency = EXCLUDED.currency, average_price = EXCLUDED.average_price,
			total_volume = EXCLUDED.total_volume, total_lots = EXCLUDED.total_lots, updated_at = NOW()
	`, a.CentreName, a.WeekNumber, a.Year, a.Currency, a.AveragePrice, a.TotalVolume, a.TotalLots)
	if err != nil {
		return fmt.Errorf("postgres: upsert weekly analytic %s: %w", a.CentreName, err)
	}
	return nil
}

// InsertNewsArticles inserts articles, skipping ones already stored.
func (pw *PostgresWriter) InsertNewsArticles(ctx context.Context, articles []*models.NewsArticle) error {
	if len(articles) == 0 {
		return nil
	}
	const cols = 7
	valueStrings := make([]string, 0, len(articles))
	valueArgs := make([]interface{}, 0, len(articles)*cols)
	for idx, a := range articles {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs,
			a.Title, a.Source, a.URL, a.Summary, a.Country, a.Category, a.PublishDate)
	}

	query := fmt.Sprintf(`
		INSERT INTO news_articles (title, source, url, summary, country, category, publish_date)
		VALUES %s
		ON CONFLICT (title, source, publish_date) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert news: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) InsertSystemHealth(ctx context.Context, h *models.SystemHealth) error {
	_, err := pw.db.ExecContext(ctx, `
		INSERT INTO system_health (run_id, captured_at, cpu_percent, memory_percent,
			sources_ok, sources_failed, results_ok, results_failed, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, h.RunID, h.CapturedAt, h.CPUPercent, h.MemoryPercent,
		h.SourcesOK, h.SourcesFailed, h.ResultsOK, h.ResultsFailed, h.DurationSeconds)
	if err != nil {
		return fmt.Errorf("postgres: insert system health: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) InsertDataQualityLog(ctx context.Context, l *models.DataQualityLog) error {
	_, err := pw.db.ExecContext(ctx, `
		INSERT INTO data_quality_logs (run_id, logged_at, total_records, success_rate, validation_errors)
		VALUES ($1, $2, $3, $4, $5)
	`, l.RunID, l.LoggedAt, l.TotalRecords, l.SuccessRate, pq.Array(l.ValidationErrors))
	if err != nil {
		return fmt.Errorf("postgres: insert data quality log: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// CountRows returns the row count of each pipeline table, used by the run summary.
func (pw *PostgresWriter) CountRows(ctx context.Context) (map[string]int, error) {
	tables := []string{"auction_centres", "gardens", "auction_lots", "market_reports",
		"weekly_price_analytics", "news_articles"}
	counts := make(map[string]int, len(tables))
	for _, t := range tables {
		var n int
		if err := pw.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t).Scan(&n); err != nil {
			return nil, fmt.Errorf("postgres: count %s: %w", t, err)
		}
		counts[t] = n
	}
	return counts, nil
}
