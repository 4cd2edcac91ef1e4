package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maltedev/occasion-scraper/internal/dataset"
)

// Sink receives the finished dataset of a run.
type Sink interface {
	Name() string
	Write(ctx context.Context, d *dataset.Dataset) error
}

// CSVSink writes the dataset as a UTF-8 CSV file with a header row. The file
// is written next to its destination and renamed into place, so readers
// never see a half-written file.
type CSVSink struct {
	path   string
	logger *slog.Logger
}

func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	return &CSVSink{
		path:   path,
		logger: logger.With("component", "csv_sink"),
	}
}

func (s *CSVSink) Name() string {
	return "csv"
}

func (s *CSVSink) Path() string {
	return s.path
}

// Write ignores cancellation of ctx; a dataset handed over is always saved.
func (s *CSVSink) Write(_ context.Context, d *dataset.Dataset) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeCSV(tmp, d); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("could not set file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("could not close file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("could not move file into place: %w", err)
	}

	s.logger.Info("scraped data saved", "path", s.path, "records", d.Len())
	return nil
}

func writeCSV(f *os.File, d *dataset.Dataset) error {
	w := csv.NewWriter(f)

	if err := w.Write(d.Columns()); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	if err := w.WriteAll(d.Rows()); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	return nil
}
