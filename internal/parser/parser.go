package parser

import (
	"errors"
	"fmt"

	"github.com/maltedev/occasion-scraper/internal/models"
)

var (
	ErrFieldMissing = errors.New("field missing")
	ErrInvalidHTML  = errors.New("invalid html")
)

// ExtractionError reports why a detail page produced no record. Field is
// empty when the document itself could not be parsed.
type ExtractionError struct {
	URL   string
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Field, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Parser turns fetched pages into listing data.
type Parser interface {
	ParseDetailPage(html string, url string) (*models.ListingRecord, error)
	ParseIndexPage(html string) (*IndexPage, error)
}
