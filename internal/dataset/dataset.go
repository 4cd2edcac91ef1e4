package dataset

import (
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/occasion-scraper/internal/models"
)

// Meta identifies the run a dataset came from.
type Meta struct {
	RunID       uuid.UUID
	StartedAt   time.Time
	CompletedAt time.Time
}

// Dataset is the frozen output of one run: successful records in the order
// the pipeline completed them.
type Dataset struct {
	meta    Meta
	records []models.ListingRecord
}

// Assemble keeps the records of successful results and drops the rest. It
// does not sort, deduplicate or revalidate.
func Assemble(meta Meta, results []models.ScrapeResult) *Dataset {
	d := &Dataset{meta: meta, records: make([]models.ListingRecord, 0, len(results))}
	for _, r := range results {
		if !r.Success() {
			continue
		}
		d.records = append(d.records, *r.Record)
	}
	return d
}

func (d *Dataset) Meta() Meta {
	return d.meta
}

func (d *Dataset) Columns() []string {
	cols := make([]string, len(models.Columns))
	copy(cols, models.Columns)
	return cols
}

// Records returns a copy of the records.
func (d *Dataset) Records() []models.ListingRecord {
	out := make([]models.ListingRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Rows returns each record as a row in Columns order.
func (d *Dataset) Rows() [][]string {
	rows := make([][]string, len(d.records))
	for i := range d.records {
		rows[i] = d.records[i].Row()
	}
	return rows
}

func (d *Dataset) Len() int {
	return len(d.records)
}
