package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/occasion-scraper/internal/catalog"
	"github.com/maltedev/occasion-scraper/internal/models"
)

const (
	titleSelector = "#content_container > div.occasion-details-v2 > h1"
	priceSelector = ".price-box .price"

	listingSelector = "div[data-key]"
	anchorSelector  = "a.occasion-link-overlay"
)

// specField binds a record field to its position in the ".main-specs" list.
// The mapping is positional only; reordering the table silently swaps
// columns, so keep it in sync with the site layout.
type specField struct {
	name     string
	position int
	set      func(r *models.ListingRecord, v string)
}

// specFields is read in the order the record stores them, which is not the
// order they appear on the page.
var specFields = []specField{
	{"category", 4, func(r *models.ListingRecord, v string) { r.Category = v }},
	{"fuel_type", 3, func(r *models.ListingRecord, v string) { r.FuelType = v }},
	{"fiscal_horsepower", 6, func(r *models.ListingRecord, v string) { r.FiscalHorsepower = v }},
	{"transmission", 5, func(r *models.ListingRecord, v string) { r.Transmission = v }},
	{"mileage", 1, func(r *models.ListingRecord, v string) { r.Mileage = v }},
	{"year", 2, func(r *models.ListingRecord, v string) { r.Year = v }},
	{"insertion_date", 8, func(r *models.ListingRecord, v string) { r.InsertionDate = v }},
}

func (f specField) selector() string {
	return fmt.Sprintf(".main-specs li:nth-of-type(%d) .spec-value", f.position)
}

// IndexPage holds the listing links found on one index page.
type IndexPage struct {
	Hrefs   []string
	Entries int
	Skipped int
}

type AutomobileParser struct {
	catalog *catalog.Catalog
}

func NewAutomobileParser(c *catalog.Catalog) *AutomobileParser {
	if c == nil {
		c = catalog.Default()
	}
	return &AutomobileParser{catalog: c}
}

// ParseDetailPage extracts every field or none. The first missing field
// aborts extraction and is reported in an *ExtractionError.
func (p *AutomobileParser) ParseDetailPage(html string, url string) (*models.ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ExtractionError{URL: url, Err: fmt.Errorf("%w: %v", ErrInvalidHTML, err)}
	}

	return p.extractRecord(doc, url)
}

func (p *AutomobileParser) extractRecord(doc *goquery.Document, url string) (*models.ListingRecord, error) {
	record := &models.ListingRecord{}

	title, err := selectText(doc, titleSelector, "title", url)
	if err != nil {
		return nil, err
	}
	record.Title = title

	price, err := selectText(doc, priceSelector, "price", url)
	if err != nil {
		return nil, err
	}
	record.Price = price

	record.Manufacturer = p.catalog.Classify(title)

	for _, f := range specFields {
		v, err := selectText(doc, f.selector(), f.name, url)
		if err != nil {
			return nil, err
		}
		f.set(record, v)
	}

	return record, nil
}

// ParseIndexPage collects the overlay link of every listing entry. Entries
// without a usable href are counted in Skipped and otherwise ignored.
func (p *AutomobileParser) ParseIndexPage(html string) (*IndexPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHTML, err)
	}

	page := &IndexPage{}
	doc.Find(listingSelector).Each(func(i int, s *goquery.Selection) {
		page.Entries++

		href, exists := s.Find(anchorSelector).First().Attr("href")
		href = strings.TrimSpace(href)
		if !exists || href == "" {
			page.Skipped++
			return
		}
		page.Hrefs = append(page.Hrefs, href)
	})

	return page, nil
}

func selectText(doc *goquery.Document, selector, field, url string) (string, error) {
	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return "", &ExtractionError{URL: url, Field: field, Err: ErrFieldMissing}
	}

	text := strings.TrimSpace(node.Text())
	if text == "" {
		return "", &ExtractionError{URL: url, Field: field, Err: fmt.Errorf("%w: empty text", ErrFieldMissing)}
	}
	return text, nil
}
