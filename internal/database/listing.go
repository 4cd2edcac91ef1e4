package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/maltedev/occasion-scraper/internal/dataset"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scrape_runs (
	run_id       UUID PRIMARY KEY,
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL,
	record_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS listings (
	id                BIGSERIAL PRIMARY KEY,
	run_id            UUID NOT NULL REFERENCES scrape_runs (run_id),
	position          INTEGER NOT NULL,
	title             TEXT NOT NULL,
	price             TEXT NOT NULL,
	manufacturer      TEXT NOT NULL,
	category          TEXT NOT NULL,
	fuel_type         TEXT NOT NULL,
	fiscal_horsepower TEXT NOT NULL,
	transmission      TEXT NOT NULL,
	mileage           TEXT NOT NULL,
	year              TEXT NOT NULL,
	insertion_date    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_run_id ON listings (run_id);
`

var listingColumns = []string{
	"run_id", "position",
	"title", "price", "manufacturer", "category", "fuel_type",
	"fiscal_horsepower", "transmission", "mileage", "year", "insertion_date",
}

// ListingSink stores each run's dataset in Postgres. Runs are appended;
// nothing is deduplicated across runs.
type ListingSink struct {
	db     *DB
	logger *slog.Logger
}

func NewListingSink(db *DB, logger *slog.Logger) *ListingSink {
	return &ListingSink{
		db:     db,
		logger: logger.With("component", "postgres_sink"),
	}
}

func (s *ListingSink) Name() string {
	return "postgres"
}

func (s *ListingSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (s *ListingSink) Write(ctx context.Context, d *dataset.Dataset) error {
	meta := d.Meta()
	if meta.RunID == uuid.Nil {
		return fmt.Errorf("dataset has no run id")
	}

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO scrape_runs (run_id, started_at, completed_at, record_count) VALUES ($1, $2, $3, $4)`,
			pgUUID(meta.RunID), meta.StartedAt, meta.CompletedAt, d.Len())
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		n, err := tx.CopyFrom(ctx, pgx.Identifier{"listings"}, listingColumns, pgx.CopyFromRows(listingRows(d)))
		if err != nil {
			return fmt.Errorf("failed to copy listings: %w", err)
		}
		if int(n) != d.Len() {
			return fmt.Errorf("copied %d listings, expected %d", n, d.Len())
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("saved listings to postgres", "run_id", meta.RunID, "records", d.Len())
	return nil
}

func listingRows(d *dataset.Dataset) [][]any {
	runID := pgUUID(d.Meta().RunID)
	records := d.Records()

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{
			runID, i,
			r.Title, r.Price, r.Manufacturer, r.Category, r.FuelType,
			r.FiscalHorsepower, r.Transmission, r.Mileage, r.Year, r.InsertionDate,
		}
	}
	return rows
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
